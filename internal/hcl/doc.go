// Package hcl loads transformation graphs from HCL files.
//
// A transformation file declares steps and the hops between them:
//
//	transformation {
//	  name        = "customers"
//	  buffer_size = 1000
//	}
//
//	step "csv_input" "read customers" {
//	  config {
//	    FILENAME = "customers.txt"
//	    FIELDS {
//	      FIELD {
//	        FIELD_NAME = "id"
//	        FIELD_TYPE = "Integer"
//	      }
//	    }
//	  }
//	}
//
//	step "dummy" "sink" {}
//
//	hop "read customers" "sink" {}
//
// The config body of a step is not decoded into Go structs. Each attribute and
// each repeating-group block is turned into a metadata injection request
// against the step plugin, so files configure steps through exactly the same
// path as programmatic injection. Expressions may reference environment
// variables as env.NAME.
package hcl
