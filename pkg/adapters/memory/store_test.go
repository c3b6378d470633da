package memory_test

import (
	"testing"

	"github.com/aretw0/facilitator/pkg/adapters/memory"
	"github.com/aretw0/facilitator/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunNodeExecutionStoreContract(t, store)
}
