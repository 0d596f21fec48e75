// Package password hashes and verifies user passwords.
//
// New hashes are Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.Compare] also accepts bcrypt hashes ($2a$, $2b$, $2y$) so accounts imported
// from the primary platform keep working until they are re-hashed.
//
// Length policy is enforced by the engine, not here. This package never stores or logs
// plaintext.
package password
