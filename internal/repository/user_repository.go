package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/admin-service/shared/apperror"
	"github.com/eaglebank/admin-service/shared/models"
	"github.com/lib/pq"
)

// UserStore is the write side for admins, account holders and third parties.
type UserStore interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	CreateAccountHolder(ctx context.Context, holder *models.AccountHolder) error
	CreateThirdParty(ctx context.Context, thirdParty *models.ThirdParty) error
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// UserWriteRepository stores every user variant in the users table; the
// kind column holds the variant's role.
type UserWriteRepository struct {
	db *sql.DB
}

func NewUserWriteRepository(db *sql.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

const insertUserQuery = `
	INSERT INTO users (kind, name, username, password_hash, roles, date_of_birth,
		primary_street, primary_postal_code, primary_city, primary_country,
		mail_street, mail_postal_code, mail_city, mail_country,
		hashed_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id
`

type userRow struct {
	user        *models.User
	dateOfBirth sql.NullTime
	primary     *models.Address
	mail        *models.Address
	hashedKey   sql.NullString
}

func (r *UserWriteRepository) insert(ctx context.Context, row userRow) error {
	var primary, mail models.Address
	if row.primary != nil {
		primary = *row.primary
	}
	if row.mail != nil {
		mail = *row.mail
	}
	err := r.db.QueryRowContext(ctx, insertUserQuery,
		string(row.user.Kind()), row.user.Name, row.user.Username, row.user.PasswordHash,
		pq.Array(rolesToStrings(row.user.Roles)), row.dateOfBirth,
		nullString(primary.Street), nullString(primary.PostalCode), nullString(primary.City), nullString(primary.Country),
		nullString(mail.Street), nullString(mail.PostalCode), nullString(mail.City), nullString(mail.Country),
		row.hashedKey, row.user.CreatedAt,
	).Scan(&row.user.ID)
	if err != nil {
		return apperror.Internal("failed to create user", err)
	}
	return nil
}

func (r *UserWriteRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	return r.insert(ctx, userRow{user: &admin.User})
}

func (r *UserWriteRepository) CreateAccountHolder(ctx context.Context, holder *models.AccountHolder) error {
	return r.insert(ctx, userRow{
		user:        &holder.User,
		dateOfBirth: sql.NullTime{Time: holder.DateOfBirth, Valid: !holder.DateOfBirth.IsZero()},
		primary:     &holder.PrimaryAddress,
		mail:        holder.MailAddress,
	})
}

func (r *UserWriteRepository) CreateThirdParty(ctx context.Context, thirdParty *models.ThirdParty) error {
	return r.insert(ctx, userRow{
		user:      &thirdParty.User,
		hashedKey: nullString(thirdParty.HashedKey),
	})
}

// GetAdminByUsername returns the oldest admin with that username.
func (r *UserWriteRepository) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query := `
		SELECT id, name, username, password_hash, roles, created_at
		FROM users
		WHERE username = $1 AND kind = $2
		ORDER BY id
		LIMIT 1
	`
	var admin models.Admin
	var roles pq.StringArray
	err := r.db.QueryRowContext(ctx, query, username, string(models.RoleAdmin)).Scan(
		&admin.ID, &admin.Name, &admin.Username, &admin.PasswordHash, &roles, &admin.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("admin %q not found", username)
	}
	if err != nil {
		return nil, apperror.Internal("failed to get admin", err)
	}
	admin.Roles = stringsToRoles(roles)
	return &admin, nil
}

const selectAccountHolderQuery = `
	SELECT id, name, username, password_hash, roles, date_of_birth,
		primary_street, primary_postal_code, primary_city, primary_country,
		mail_street, mail_postal_code, mail_city, mail_country, created_at
	FROM users
	WHERE id = $1 AND kind = 'ACCOUNT_HOLDER'
`

func scanAccountHolder(row rowScanner) (*models.AccountHolder, error) {
	var (
		holder           models.AccountHolder
		roles            pq.StringArray
		dob              sql.NullTime
		pStreet, pPostal sql.NullString
		pCity, pCountry  sql.NullString
		mStreet, mPostal sql.NullString
		mCity, mCountry  sql.NullString
	)
	if err := row.Scan(
		&holder.ID, &holder.Name, &holder.Username, &holder.PasswordHash, &roles, &dob,
		&pStreet, &pPostal, &pCity, &pCountry,
		&mStreet, &mPostal, &mCity, &mCountry, &holder.CreatedAt,
	); err != nil {
		return nil, err
	}
	holder.Roles = stringsToRoles(roles)
	if dob.Valid {
		holder.DateOfBirth = dob.Time
	}
	holder.PrimaryAddress = models.Address{
		Street: pStreet.String, PostalCode: pPostal.String, City: pCity.String, Country: pCountry.String,
	}
	if mStreet.Valid {
		holder.MailAddress = &models.Address{
			Street: mStreet.String, PostalCode: mPostal.String, City: mCity.String, Country: mCountry.String,
		}
	}
	return &holder, nil
}

func getAccountHolder(ctx context.Context, q querier, id int64) (*models.AccountHolder, error) {
	holder, err := scanAccountHolder(q.QueryRowContext(ctx, selectAccountHolderQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("account holder %d not found", id)
	}
	if err != nil {
		return nil, apperror.Internal(fmt.Sprintf("failed to get account holder %d", id), err)
	}
	return holder, nil
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func stringsToRoles(in []string) []models.Role {
	out := make([]models.Role, len(in))
	for i, s := range in {
		out[i] = models.Role(s)
	}
	return out
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
