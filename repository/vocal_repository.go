package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"Musga/model"
)

// VocalRepository defines the interface for vocal data operations.
type VocalRepository interface {
	CreateVocal(vocal *model.Vocal) (int64, error)
	GetVocalByID(id int64) (*model.Vocal, error)
	Search(filters model.SearchFilters, page model.Page) ([]*model.Vocal, int64, error)
	ListBySinger(singerID int64, page model.Page) ([]*model.Vocal, int64, error)
	UpdateVocal(id int64, patch model.VocalPatch) error
	SoftDelete(id int64) error
	IncrementViewCount(id int64) error
	IncrementDownloadCount(id int64) error
	// MarkSoldExclusive flips an unsold vocal to sold+inactive in a single
	// conditional update. Returns false when another sale already won.
	MarkSoldExclusive(id int64) (bool, error)
	SetProcessingResult(id int64, duration int, previewPath string, status model.VocalStatus) error
}

// mysqlVocalRepository implements VocalRepository for MySQL.
type mysqlVocalRepository struct {
	db *sql.DB
}

// NewMySQLVocalRepository creates a new mysqlVocalRepository.
func NewMySQLVocalRepository(db *sql.DB) VocalRepository {
	return &mysqlVocalRepository{db: db}
}

const vocalColumns = "v.id, v.singer_id, v.title, COALESCE(v.description, ''), v.genre, v.bpm, v.`key`, v.tone, " +
	"v.duration, v.price, v.licensing_type, v.file_path, v.preview_path, v.file_size, v.status, " +
	"v.is_exclusive, v.is_sold, v.is_active, v.view_count, v.download_count, v.created_at, v.updated_at"

func scanVocal(row interface{ Scan(dest ...any) error }) (*model.Vocal, error) {
	v := &model.Vocal{}
	err := row.Scan(&v.ID, &v.SingerID, &v.Title, &v.Description, &v.Genre, &v.Bpm, &v.Key, &v.Tone,
		&v.Duration, &v.Price, &v.LicensingType, &v.FilePath, &v.PreviewPath, &v.FileSize, &v.Status,
		&v.IsExclusive, &v.IsSold, &v.IsActive, &v.ViewCount, &v.DownloadCount, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateVocal adds a new vocal to the database.
func (r *mysqlVocalRepository) CreateVocal(vocal *model.Vocal) (int64, error) {
	query := "INSERT INTO vocals (singer_id, title, description, genre, bpm, `key`, tone, duration, price, licensing_type, file_path, preview_path, file_size, status, is_exclusive, is_sold, is_active) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateVocal: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(vocal.SingerID, vocal.Title, vocal.Description, vocal.Genre, vocal.Bpm,
		vocal.Key, vocal.Tone, vocal.Duration, vocal.Price, vocal.LicensingType,
		vocal.FilePath, vocal.PreviewPath, vocal.FileSize, vocal.Status,
		vocal.LicensingType == model.LicensingExclusive, vocal.IsSold, vocal.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateVocal: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateVocal: %w", err)
	}
	return id, nil
}

// GetVocalByID retrieves a vocal by its ID regardless of state; callers decide
// which states are visible.
func (r *mysqlVocalRepository) GetVocalByID(id int64) (*model.Vocal, error) {
	query := fmt.Sprintf("SELECT %s FROM vocals v WHERE v.id = ?", vocalColumns)
	vocal, err := scanVocal(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Vocal not found
		}
		return nil, fmt.Errorf("failed to scan vocal by ID %d: %w", id, err)
	}
	return vocal, nil
}

// buildSearchWhere assembles the WHERE clause and arguments for Search.
func buildSearchWhere(filters model.SearchFilters) (string, []any) {
	conds := []string{"v.is_active = TRUE", "v.is_sold = FALSE", "v.status = 'completed'"}
	var args []any

	if filters.Genre != "" {
		conds = append(conds, "v.genre = ?")
		args = append(args, filters.Genre)
	}
	if filters.MinPrice != nil {
		conds = append(conds, "v.price >= ?")
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		conds = append(conds, "v.price <= ?")
		args = append(args, *filters.MaxPrice)
	}
	if filters.MinBpm != nil {
		conds = append(conds, "v.bpm >= ?")
		args = append(args, *filters.MinBpm)
	}
	if filters.MaxBpm != nil {
		conds = append(conds, "v.bpm <= ?")
		args = append(args, *filters.MaxBpm)
	}
	if filters.Key != "" {
		conds = append(conds, "v.`key` = ?")
		args = append(args, filters.Key)
	}
	if filters.LicensingType != "" {
		conds = append(conds, "v.licensing_type = ?")
		args = append(args, filters.LicensingType)
	}
	if filters.Search != "" {
		conds = append(conds, "(LOWER(v.title) LIKE ? OR LOWER(COALESCE(v.description, '')) LIKE ? OR LOWER(u.first_name) LIKE ? OR LOWER(u.last_name) LIKE ?)")
		needle := "%" + strings.ToLower(filters.Search) + "%"
		args = append(args, needle, needle, needle, needle)
	}

	return strings.Join(conds, " AND "), args
}

// Search returns purchasable vocals matching the filters, newest first.
func (r *mysqlVocalRepository) Search(filters model.SearchFilters, page model.Page) ([]*model.Vocal, int64, error) {
	where, args := buildSearchWhere(filters)

	countQuery := "SELECT COUNT(*) FROM vocals v JOIN users u ON u.id = v.singer_id WHERE " + where
	var total int64
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vocals for search: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s, u.id, u.email, u.username, u.first_name, u.last_name, u.role, COALESCE(u.bio, ''), u.is_active, u.is_verified, u.created_at, u.updated_at
	           FROM vocals v JOIN users u ON u.id = v.singer_id
	           WHERE %s ORDER BY v.created_at DESC LIMIT ? OFFSET ?`, vocalColumns, where)
	rows, err := r.db.Query(query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query vocals for search: %w", err)
	}
	defer rows.Close()

	vocals := make([]*model.Vocal, 0)
	for rows.Next() {
		v := &model.Vocal{}
		singer := &model.User{}
		err := rows.Scan(&v.ID, &v.SingerID, &v.Title, &v.Description, &v.Genre, &v.Bpm, &v.Key, &v.Tone,
			&v.Duration, &v.Price, &v.LicensingType, &v.FilePath, &v.PreviewPath, &v.FileSize, &v.Status,
			&v.IsExclusive, &v.IsSold, &v.IsActive, &v.ViewCount, &v.DownloadCount, &v.CreatedAt, &v.UpdatedAt,
			&singer.ID, &singer.Email, &singer.Username, &singer.FirstName, &singer.LastName, &singer.Role,
			&singer.Bio, &singer.IsActive, &singer.IsVerified, &singer.CreatedAt, &singer.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vocal in Search: %w", err)
		}
		v.Singer = singer
		vocals = append(vocals, v)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during rows iteration in Search: %w", err)
	}

	return vocals, total, nil
}

// ListBySinger retrieves a singer's active vocals (any sale status), newest first.
func (r *mysqlVocalRepository) ListBySinger(singerID int64, page model.Page) ([]*model.Vocal, int64, error) {
	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM vocals v WHERE v.singer_id = ? AND v.is_active = TRUE", singerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vocals for singer %d: %w", singerID, err)
	}

	query := fmt.Sprintf(`SELECT %s FROM vocals v WHERE v.singer_id = ? AND v.is_active = TRUE
	           ORDER BY v.created_at DESC LIMIT ? OFFSET ?`, vocalColumns)
	rows, err := r.db.Query(query, singerID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query vocals for singer %d: %w", singerID, err)
	}
	defer rows.Close()

	vocals := make([]*model.Vocal, 0)
	for rows.Next() {
		v, err := scanVocal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vocal in ListBySinger: %w", err)
		}
		vocals = append(vocals, v)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during rows iteration in ListBySinger: %w", err)
	}

	return vocals, total, nil
}

// UpdateVocal applies a partial field patch.
func (r *mysqlVocalRepository) UpdateVocal(id int64, patch model.VocalPatch) error {
	sets := []string{}
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, *patch.Genre)
	}
	if patch.Bpm != nil {
		sets = append(sets, "bpm = ?")
		args = append(args, *patch.Bpm)
	}
	if patch.Key != nil {
		sets = append(sets, "`key` = ?")
		args = append(args, *patch.Key)
	}
	if patch.Tone != nil {
		sets = append(sets, "tone = ?")
		args = append(args, *patch.Tone)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, *patch.Price)
	}
	if patch.LicensingType != nil {
		sets = append(sets, "licensing_type = ?", "is_exclusive = ?")
		args = append(args, *patch.LicensingType, *patch.LicensingType == model.LicensingExclusive)
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE vocals SET %s WHERE id = ?", strings.Join(sets, ", "))
	args = append(args, id)
	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to execute UpdateVocal for ID %d: %w", id, err)
	}
	return nil
}

// SoftDelete marks a vocal inactive.
func (r *mysqlVocalRepository) SoftDelete(id int64) error {
	if _, err := r.db.Exec("UPDATE vocals SET is_active = FALSE WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to soft delete vocal %d: %w", id, err)
	}
	return nil
}

// IncrementViewCount bumps the view counter atomically in the database.
func (r *mysqlVocalRepository) IncrementViewCount(id int64) error {
	if _, err := r.db.Exec("UPDATE vocals SET view_count = view_count + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to increment view count for vocal %d: %w", id, err)
	}
	return nil
}

// IncrementDownloadCount bumps the download counter atomically in the database.
func (r *mysqlVocalRepository) IncrementDownloadCount(id int64) error {
	if _, err := r.db.Exec("UPDATE vocals SET download_count = download_count + 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to increment download count for vocal %d: %w", id, err)
	}
	return nil
}

// MarkSoldExclusive performs the compare-and-swap sale transition. Exactly one
// caller can observe a TRUE result for a given vocal.
func (r *mysqlVocalRepository) MarkSoldExclusive(id int64) (bool, error) {
	res, err := r.db.Exec("UPDATE vocals SET is_sold = TRUE, is_active = FALSE WHERE id = ? AND is_sold = FALSE", id)
	if err != nil {
		return false, fmt.Errorf("failed to mark vocal %d sold: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for vocal %d: %w", id, err)
	}
	return affected == 1, nil
}

// SetProcessingResult records the asset pipeline outcome for an upload.
func (r *mysqlVocalRepository) SetProcessingResult(id int64, duration int, previewPath string, status model.VocalStatus) error {
	query := "UPDATE vocals SET duration = ?, preview_path = ?, status = ? WHERE id = ?"
	if _, err := r.db.Exec(query, duration, previewPath, status, id); err != nil {
		return fmt.Errorf("failed to set processing result for vocal %d: %w", id, err)
	}
	return nil
}
