package jsclass

// tree-sitter-javascript node types.
const (
	nodeExportStatement   = "export_statement"
	nodeClassDeclaration  = "class_declaration"
	nodeClassHeritage     = "class_heritage"
	nodeClassBody         = "class_body"
	nodeMethodDefinition  = "method_definition"
	nodeFieldDefinition   = "field_definition"
	nodeThrowStatement    = "throw_statement"
	nodeExpressionStmt    = "expression_statement"
	nodeAssignment        = "assignment_expression"
	nodeNewExpression     = "new_expression"
	nodeMemberExpression  = "member_expression"
	nodeComputedProperty  = "computed_property_name"
	nodeComment           = "comment"
	nodeIdentifier        = "identifier"
	nodePropertyIdent     = "property_identifier"
	nodePrivatePropIdent  = "private_property_identifier"
	nodeString            = "string"
	nodeTemplateString    = "template_string"
	nodeNumber            = "number"
	nodeTrue              = "true"
	nodeFalse             = "false"
	nodeNull              = "null"
	nodeUndefined         = "undefined"
	nodeThis              = "this"
	nodeArray             = "array"
	nodeUnary             = "unary_expression"
	nodeArrowFunction     = "arrow_function"
	nodeFunction          = "function"
	nodeFunctionExpr      = "function_expression"
	nodeGeneratorFunction = "generator_function"
	nodeAssignmentPattern = "assignment_pattern"
	nodeRestPattern       = "rest_pattern"
	nodeCallExpression    = "call_expression"
	nodeObject            = "object"

	keywordStatic = "static"
	keywordGet    = "get"
	keywordSet    = "set"
)
