package sso

import (
	"context"
)

// GetPasswordPolicy fetches the server's password policy.
func (c *Client) GetPasswordPolicy(ctx context.Context) (PasswordPolicy, error) {
	const op = "get password policy"

	sess, err := c.guard(op)
	if err != nil {
		return PasswordPolicy{}, err
	}

	policy, err := sess.GetPasswordPolicy(ctx)
	if err != nil {
		return PasswordPolicy{}, Normalize(op, c.conn.host, err)
	}
	return policy, nil
}

// SetPasswordPolicy merges the non-nil fields of update over base and
// replaces the server's password policy with the result. Fields left nil
// in the update keep the value carried by base. Returns the applied
// policy as re-read from the server.
func (c *Client) SetPasswordPolicy(ctx context.Context, base PasswordPolicy, update PasswordPolicyUpdate) (PasswordPolicy, error) {
	const op = "set password policy"

	sess, err := c.guard(op)
	if err != nil {
		return PasswordPolicy{}, err
	}

	merged := update.Apply(base)
	if err := validatePasswordPolicy(op, merged); err != nil {
		return PasswordPolicy{}, err
	}

	applied, err := sess.SetPasswordPolicy(ctx, merged)
	if err != nil {
		return PasswordPolicy{}, Normalize(op, c.conn.host, err)
	}

	c.log.Info("Password policy replaced", map[string]any{
		"server": c.conn.host,
	})
	return applied, nil
}

// GetLockoutPolicy fetches the server's account lockout policy.
func (c *Client) GetLockoutPolicy(ctx context.Context) (LockoutPolicy, error) {
	const op = "get lockout policy"

	sess, err := c.guard(op)
	if err != nil {
		return LockoutPolicy{}, err
	}

	policy, err := sess.GetLockoutPolicy(ctx)
	if err != nil {
		return LockoutPolicy{}, Normalize(op, c.conn.host, err)
	}
	return policy, nil
}

// SetLockoutPolicy merges the non-nil fields of update over base and
// replaces the server's lockout policy with the result.
func (c *Client) SetLockoutPolicy(ctx context.Context, base LockoutPolicy, update LockoutPolicyUpdate) (LockoutPolicy, error) {
	const op = "set lockout policy"

	sess, err := c.guard(op)
	if err != nil {
		return LockoutPolicy{}, err
	}

	merged := update.Apply(base)
	if err := validateLockoutPolicy(op, merged); err != nil {
		return LockoutPolicy{}, err
	}

	applied, err := sess.SetLockoutPolicy(ctx, merged)
	if err != nil {
		return LockoutPolicy{}, Normalize(op, c.conn.host, err)
	}

	c.log.Info("Lockout policy replaced", map[string]any{
		"server": c.conn.host,
	})
	return applied, nil
}

// GetTokenLifetime fetches the server's maximum token lifetimes.
func (c *Client) GetTokenLifetime(ctx context.Context) (TokenLifetime, error) {
	const op = "get token lifetime"

	sess, err := c.guard(op)
	if err != nil {
		return TokenLifetime{}, err
	}

	lifetime, err := sess.GetTokenLifetime(ctx)
	if err != nil {
		return TokenLifetime{}, Normalize(op, c.conn.host, err)
	}
	return lifetime, nil
}

// SetTokenLifetime merges the non-nil fields of update over base and
// replaces the server's token lifetimes with the result.
func (c *Client) SetTokenLifetime(ctx context.Context, base TokenLifetime, update TokenLifetimeUpdate) (TokenLifetime, error) {
	const op = "set token lifetime"

	sess, err := c.guard(op)
	if err != nil {
		return TokenLifetime{}, err
	}

	merged := update.Apply(base)
	if merged.MaxHoKTokenLifetime < 0 || merged.MaxBearerTokenLifetime < 0 {
		return TokenLifetime{}, Errorf(op, ErrorKindValidation, "token lifetimes must not be negative")
	}

	applied, err := sess.SetTokenLifetime(ctx, merged)
	if err != nil {
		return TokenLifetime{}, Normalize(op, c.conn.host, err)
	}

	c.log.Info("Token lifetime replaced", map[string]any{
		"server": c.conn.host,
	})
	return applied, nil
}

func validatePasswordPolicy(op string, p PasswordPolicy) error {
	if p.MinLength < 0 || p.MaxLength < 0 {
		return Errorf(op, ErrorKindValidation, "password lengths must not be negative")
	}
	if p.MaxLength > 0 && p.MinLength > p.MaxLength {
		return Errorf(op, ErrorKindValidation,
			"minimum length %d exceeds maximum length %d", p.MinLength, p.MaxLength)
	}
	if p.ProhibitedPreviousPasswords < 0 ||
		p.MinAlphabeticCount < 0 ||
		p.MinUppercaseCount < 0 ||
		p.MinLowercaseCount < 0 ||
		p.MinNumericCount < 0 ||
		p.MinSpecialCharCount < 0 ||
		p.MaxIdenticalAdjacentCharacters < 0 ||
		p.PasswordLifetimeDays < 0 {
		return Errorf(op, ErrorKindValidation, "policy counts must not be negative")
	}
	return nil
}

func validateLockoutPolicy(op string, p LockoutPolicy) error {
	if p.MaxFailedAttempts < 0 {
		return Errorf(op, ErrorKindValidation, "max failed attempts must not be negative")
	}
	if p.FailedAttemptInterval < 0 || p.AutoUnlockInterval < 0 {
		return Errorf(op, ErrorKindValidation, "lockout intervals must not be negative")
	}
	return nil
}
