package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/proresume/server/internal/database"
	"github.com/proresume/server/internal/models"
)

const userColumns = `id, email, password_hash, name, provider, google_id, linkedin_id, avatar_url,
	is_verified, verification_token_hash, verification_token_expires_at,
	reset_token_hash, reset_token_expires_at,
	email_notifications, marketing_emails, resume_reminders,
	created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Provider,
		&user.GoogleID, &user.LinkedInID, &user.AvatarURL,
		&user.IsVerified, &user.VerificationTokenHash, &user.VerificationTokenExpiresAt,
		&user.ResetTokenHash, &user.ResetTokenExpiresAt,
		&user.Preferences.EmailNotifications, &user.Preferences.MarketingEmails, &user.Preferences.ResumeReminders,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

// GetByOAuthID looks a user up by external identity key. The provider picks
// the column; uniqueness is sparse (NULLs don't collide).
func (r *UserRepository) GetByOAuthID(ctx context.Context, provider, externalID string) (*models.User, error) {
	var column string
	switch provider {
	case models.ProviderGoogle:
		column = "google_id"
	case models.ProviderLinkedIn:
		column = "linkedin_id"
	default:
		return nil, fmt.Errorf("unknown oauth provider: %s", provider)
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)
	return scanUserRow(r.pool.QueryRow(ctx, query, externalID))
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Provider == "" {
		user.Provider = models.ProviderLocal
	}

	query := fmt.Sprintf(`
		INSERT INTO users (id, email, password_hash, name, provider, google_id, linkedin_id, avatar_url,
			is_verified, email_notifications, marketing_emails, resume_reminders, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING %s`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Provider,
		user.GoogleID, user.LinkedInID, user.AvatarURL, user.IsVerified,
		user.Preferences.EmailNotifications, user.Preferences.MarketingEmails, user.Preferences.ResumeReminders,
		user.CreatedAt, user.UpdatedAt,
	))
}

// UpdateProfile changes name/email. Callers are responsible for clearing
// is_verified when the email changes.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string, isVerified bool) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET name = $1, email = $2, is_verified = $3, updated_at = $4
		WHERE id = $5
		RETURNING %s`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query, name, email, isVerified, time.Now(), id))
}

// SetPassword replaces the password hash and clears any pending reset token.
func (r *UserRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $2
		WHERE id = $3
	`
	result, err := r.pool.Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SetVerificationToken stores the hash+expiry of a freshly generated
// verification token, overwriting any previously issued one.
func (r *UserRepository) SetVerificationToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET verification_token_hash = $1, verification_token_expires_at = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.pool.Exec(ctx, query, tokenHash, expiresAt, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ConsumeVerificationToken atomically matches a stored hash with an
// unexpired deadline, marks the user verified and clears the token. A
// missed match (wrong hash, elapsed expiry, already consumed) is
// models.ErrNotFound; callers collapse that into the generic failure.
func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET is_verified = TRUE, verification_token_hash = NULL, verification_token_expires_at = NULL, updated_at = $1
		WHERE verification_token_hash = $2 AND verification_token_expires_at > $1
		RETURNING %s`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query, time.Now(), tokenHash))
}

// SetResetToken stores the hash+expiry of a password-reset token,
// overwriting any previously issued one.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $1, reset_token_expires_at = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.pool.Exec(ctx, query, tokenHash, expiresAt, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearResetToken removes a pending reset token without consuming it
// (compensating action when the reset email cannot be sent).
func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $1
		WHERE id = $2
	`
	_, err := r.pool.Exec(ctx, query, time.Now(), id)
	return database.MapPostgresError(err)
}

// ConsumeResetToken atomically matches an unexpired reset token, installs
// the new password hash and clears the token. models.ErrNotFound on any miss.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = $1
		WHERE reset_token_hash = $3 AND reset_token_expires_at > $1
		RETURNING %s`, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query, time.Now(), newPasswordHash, tokenHash))
}

// LinkOAuthAccount attaches an external identity to an existing user and
// forces the account verified (the provider vouched for the email).
func (r *UserRepository) LinkOAuthAccount(ctx context.Context, id, provider, externalID string, avatarURL *string) (*models.User, error) {
	var column string
	switch provider {
	case models.ProviderGoogle:
		column = "google_id"
	case models.ProviderLinkedIn:
		column = "linkedin_id"
	default:
		return nil, fmt.Errorf("unknown oauth provider: %s", provider)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %s = $1, avatar_url = COALESCE($2, avatar_url), is_verified = TRUE, updated_at = $3
		WHERE id = $4
		RETURNING %s`, column, userColumns)

	return scanUserRow(r.pool.QueryRow(ctx, query, externalID, avatarURL, time.Now(), id))
}

func (r *UserRepository) UpdatePreferences(ctx context.Context, id string, prefs models.Preferences) error {
	query := `
		UPDATE users
		SET email_notifications = $1, marketing_emails = $2, resume_reminders = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.pool.Exec(ctx, query,
		prefs.EmailNotifications, prefs.MarketingEmails, prefs.ResumeReminders, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes the user; refresh tokens and resumes cascade at the
// schema level.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ClearElapsedTokenHashes nulls out verification/reset hashes whose expiry
// has passed. Purely housekeeping: consumption already checks the deadline.
func (r *UserRepository) ClearElapsedTokenHashes(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET verification_token_hash = CASE WHEN verification_token_expires_at <= NOW() THEN NULL ELSE verification_token_hash END,
		    verification_token_expires_at = CASE WHEN verification_token_expires_at <= NOW() THEN NULL ELSE verification_token_expires_at END,
		    reset_token_hash = CASE WHEN reset_token_expires_at <= NOW() THEN NULL ELSE reset_token_hash END,
		    reset_token_expires_at = CASE WHEN reset_token_expires_at <= NOW() THEN NULL ELSE reset_token_expires_at END
		WHERE verification_token_expires_at <= NOW() OR reset_token_expires_at <= NOW()
	`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
