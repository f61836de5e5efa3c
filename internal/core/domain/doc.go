// Package domain holds the types shared by every layer of normrag:
// documents and their chunks, corpora and index manifests, response
// modes and retrieval profiles, chat sessions, settings, and the error
// values that classify failures.
//
// domain imports only the standard library. Every other package may
// import it and it imports none of them.
package domain
