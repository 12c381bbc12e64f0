// Package internaldefs holds the shared metric definitions consumed by the
// Prometheus and OTel exporters. It exists so both exporters render the
// same names, help strings, and bucket layout without duplicating them.
package internaldefs
