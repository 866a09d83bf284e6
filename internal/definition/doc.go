// Package definition loads suite definition files.
//
// A definition file is YAML describing document types and the applications
// that store them:
//
//	suite:
//	  name: catalog
//	types:
//	  - name: Product
//	    template: "{name}"
//	    schema:
//	      properties:
//	        name: {type: string}
//	        location: {type: object}
//	applications:
//	  - name: inventory
//	    collections:
//	      - name: products
//	        type: Product
//	        primary_key: sku
//	        indexes: [name]
//	        specials:
//	          location: {handler: geometry, config: {types: [Point]}}
//	        processors:
//	          - {name: slug, config: {sources: [name]}}
//
// Value handlers and document processors are built by name from their
// registries. Operations declared in a file carry schemas only; invoking
// one reports domain.ErrNotImplemented.
package definition
