// Package jwt issues and verifies the signed session format: a JWT carrying
// the caller's identity claims, checked against a server-held secret (HS256)
// or an Ed25519 key pair without any directory lookup.
package jwt
