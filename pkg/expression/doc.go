/*
Package expression evaluates when and skip conditions.

Conditions may reference execution variables with the <+path.to.value>
syntax. References are resolved against the variables of the current
ambiance and the rest of the expression is compiled with expr-lang:

	<+pipeline.name> == "deploy" && <+stage.variables.replicas> > 2

Every resolved reference is recorded so that a node's run information can
show what each expression evaluated to (see ExpressionBlocks).
*/
package expression
