// Package password verifies locally configured storefront credentials.
//
// Hashes use Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Credentials] maps usernames to hashed entries loaded from configuration
// and answers login attempts in roughly constant time whether or not the
// username exists.
//
// # What this package must NOT do
//
//   - Log plaintext passwords.
//   - Decide login policy (rate limits, username rules); the Engine does.
package password
