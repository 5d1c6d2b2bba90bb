// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides agent identity and ID generation utilities.

# Identity

Every state-changing request is made on behalf of an agent. Handlers never
read a global "current user"; they ask an injected IdentityProvider:

	agentID, err := identity.AgentID(r)

TokenIdentity is the default provider. It expects an HS256 bearer token in
the Authorization header whose subject is the agent id:

	token, err := auth.IssueAgentToken("alice", secret, 24*time.Hour)
	req.Header.Set("Authorization", "Bearer "+token)

Tokens signed with another secret, expired tokens and tokens using a non-HMAC
algorithm are rejected with ErrInvalidToken.

# ID Generation

Random hex IDs for polls and options:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
