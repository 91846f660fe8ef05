// Package verify establishes the integrity and authenticity of downloaded
// release artifacts.
//
// # Security Model
//
// Checksum verification is always mandatory: there is no configuration
// switch to disable it. Signature verification is governed by the trust
// policy and degrades to a logged warning only when the release publishes
// no signing material and the policy does not require it. A failed
// verification of either kind is fatal and never retried.
//
// # Verification Methods
//
//  1. SHA-256 checksum (mandatory)
//     - per-asset .sha256 record, or the consolidated SHA256SUMS manifest
//     - compared case-insensitively against the first whitespace token
//
//  2. Detached signature (policy-dependent), via one of:
//     - cosign verify-blob as a subprocess (the bootstrapped CLI tool)
//     - in-process verification of a cosign signature with a pinned
//       public key
//     - in-process verification of a sigstore bundle
//     - in-process PGP verification of armored/binary detached signatures
//
// Public key resolution order: an operator path override pins trust
// independent of anything the release publishes; then the key downloaded
// with the release; then the key embedded in this installer.
package verify
