// Package normalisers turns raw file bytes into documents. Each
// normaliser handles a set of MIME types. The Registry dispatches a raw
// document to the highest-priority normaliser that accepts its type.
package normalisers
