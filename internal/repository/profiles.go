package repository

import (
	"context"

	"arsys/backend/internal/models"
)

// ProfilePatch carries the fields a profile update may change.
type ProfilePatch struct {
	Uptime *string `json:"uptime,omitempty"`
	Server *string `json:"server,omitempty"`
}

func (r *Repository) ListProfiles(ctx context.Context, userName string) ([]models.Profile, error) {
	rows, err := r.pool.Query(ctx, `
SELECT user_name, name, uptime, server, created_at
FROM profiles
WHERE user_name = $1
ORDER BY name`, userName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.UserName, &p.Name, &p.Uptime, &p.Server, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *Repository) GetProfile(ctx context.Context, userName, name string) (models.Profile, error) {
	row := r.pool.QueryRow(ctx, `
SELECT user_name, name, uptime, server, created_at
FROM profiles
WHERE user_name = $1 AND name = $2`, userName, name)
	var p models.Profile
	err := row.Scan(&p.UserName, &p.Name, &p.Uptime, &p.Server, &p.CreatedAt)
	return p, err
}

func (r *Repository) CreateProfile(ctx context.Context, profile models.Profile) (models.Profile, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO profiles (user_name, name, uptime, server)
VALUES ($1, $2, $3, $4)
RETURNING user_name, name, uptime, server, created_at`,
		profile.UserName, profile.Name, profile.Uptime, profile.Server)
	var out models.Profile
	err := row.Scan(&out.UserName, &out.Name, &out.Uptime, &out.Server, &out.CreatedAt)
	return out, err
}

func (r *Repository) UpdateProfile(ctx context.Context, userName, name string, patch ProfilePatch) (models.Profile, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE profiles SET
	uptime = COALESCE($3, uptime),
	server = COALESCE($4, server)
WHERE user_name = $1 AND name = $2
RETURNING user_name, name, uptime, server, created_at`,
		userName, name, patch.Uptime, patch.Server)
	var out models.Profile
	err := row.Scan(&out.UserName, &out.Name, &out.Uptime, &out.Server, &out.CreatedAt)
	return out, err
}

func (r *Repository) DeleteProfile(ctx context.Context, userName, name string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE user_name = $1 AND name = $2`, userName, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
