// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credentials and identifiers.

# Passwords

Passwords are hashed with bcrypt. The cost comes from BCRYPT_COST:

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	hash, err := hasher.Hash(password)
	err = hasher.Check(hash, password) // ErrPasswordMismatch on a wrong password

# Access Tokens

Access tokens are HS256 JWTs carrying the user ID and role:

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	token, err := tokens.Issue(user)
	claims, err := tokens.Validate(token)

Clients send them as "Authorization: Bearer <token>". ExtractBearer
parses that header. The role inside a token is not trusted for
authorization; middleware reloads the account on every request.

# IDs

NewID returns a random UUID used as the primary key for every row.
*/
package auth
