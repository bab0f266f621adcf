// Package seal provides the opaque seal/unseal capability used to store
// credential secrets at rest.
//
// The credential pool depends only on the Sealer interface; the cipher
// behind it is an implementation detail. AESGCM is the production
// implementation. Plaintext exists for tests and local development where
// key management would be ceremony.
package seal
