/*
Package schema builds and renders binding schema documents.

A document describes the reflective shape of one type: its inheritance, its
constructor contract, and its instance, prototype and static members. It is
generated once and then completed by hand, so every entry carries TODO
placeholders for types and descriptions.

# Document Layout

Sections always appear in this order; the five member sections are omitted
when empty:

	# ============================================================================
	# Location Class Definition
	# Generated at: 2025-01-02T03:04:05Z
	# ============================================================================

	className: Location
	kind: FunctionTemplate
	description: "TODO: add class description"
	spec: "TODO: add specification link"

	extends: null
	mixins: []

	constructor:
	  throw: "Illegal constructor"

	internal:
	  fieldCount: 1
	  toStringTag: Location

	prototypeProperties:
	  - name: href
	    kind: Accessor
	    descriptor: {writable: true, enumerable: true, configurable: true}
	    getter:
	      callback: LocationHrefGetter
	      returnType: Any  # TODO: specify the return type
	    setter:
	      callback: LocationHrefSetter
	    description: "TODO: add property description"

	prototypeMethods:
	  - name: reload
	    kind: Method
	    descriptor: {writable: true, enumerable: true, configurable: true}
	    callback: LocationReload
	    parameters: []
	    returnType: Any  # TODO: specify the return type
	    length: 0
	    description: "TODO: add method description"

	options:
	  freezePrototype: true
	  freezeInstance: false
	  enabled: true

# Rendering

	doc := schema.Build(model, "Location", schema.DefaultOptions())
	text := doc.Text()

Build is pure: the same model, type name and options always give the same
text. Validate parses a rendered document and checks its section order.
*/
package schema
