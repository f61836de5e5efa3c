// Package connectors provides implementations of the Connector interface
// for document collections. A connector knows how to enumerate the files
// of one collection and report changes to them.
package connectors
