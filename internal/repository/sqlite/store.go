// Package sqlite provides a SQLite-backed implementation of repository.Store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"auction-platform/internal/biddingerrors"
	model "auction-platform/internal/models"
	"auction-platform/internal/repository"
	"auction-platform/internal/repository/sqlite/migrations"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var _ repository.Store = (*Store)(nil)

const (
	userColumns    = `user_id, username, password_hash, email, role, created_at`
	auctionColumns = `auction_id, seller_id, name, description, image_url, start_price, reserve_price,
	                  created_at, expires_at, resolved_at, version`
	bidColumns = `bid_id, auction_id, user_id, amount, is_leading, outcome, created_at, updated_at`
	bidRanking = `ORDER BY amount DESC, created_at ASC, bid_id ASC`
)

// Store persists users, auctions and bids in SQLite.
type Store struct {
	sqlDB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and applies embedded migrations.
// Write transactions take the database lock on BEGIN so a bid's
// read-validate-write sequence never interleaves with another writer.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateUser inserts a user, mapping unique violations to ErrUsernameTaken / ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (user_id, username, username_key, password_hash, email, email_key, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.UserID,
		user.Username,
		strings.ToLower(user.Username),
		user.PasswordHash,
		user.Email,
		strings.ToLower(user.Email),
		string(user.Role),
		toMillis(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			message := strings.ToLower(err.Error())
			if strings.Contains(message, "email_key") {
				return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrEmailTaken)
			}
			return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUsernameTaken)
		}
		return fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (model.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = ?`, userID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user %s: %w", userID, biddingerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByUsername returns a user by username, case-insensitively.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username_key = ?`, strings.ToLower(username))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, fmt.Errorf("get user %s: %w", username, biddingerrors.ErrUserNotFound)
		}
		return model.User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return user, nil
}

// CreateAuction inserts an auction.
func (s *Store) CreateAuction(ctx context.Context, auction model.Auction) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO auctions (auction_id, seller_id, name, description, image_url, start_price, reserve_price,
		                       created_at, expires_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		auction.AuctionID,
		auction.SellerID,
		auction.Name,
		auction.Description,
		auction.ImageURL,
		auction.StartPrice,
		auction.ReservePrice,
		toMillis(auction.CreatedAt),
		toMillis(auction.ExpiresAt),
		auction.Version,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrUserNotFound)
		}
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, err)
	}
	return nil
}

// GetAuction returns an auction by ID.
func (s *Store) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	return getAuction(ctx, s.sqlDB, auctionID)
}

func getAuction(ctx context.Context, q queryer, auctionID string) (model.Auction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE auction_id = ?`, auctionID)
	auction, err := scanAuction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
		}
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// UpdateAuction rewrites the editable fields of an auction if its version is unchanged.
func (s *Store) UpdateAuction(ctx context.Context, auction model.Auction) (model.Auction, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Auction{}, fmt.Errorf("begin update auction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE auctions
		    SET name = ?, description = ?, image_url = ?, start_price = ?, reserve_price = ?,
		        expires_at = ?, version = version + 1
		  WHERE auction_id = ? AND version = ? AND resolved_at IS NULL`,
		auction.Name,
		auction.Description,
		auction.ImageURL,
		auction.StartPrice,
		auction.ReservePrice,
		toMillis(auction.ExpiresAt),
		auction.AuctionID,
		auction.Version,
	)
	if err != nil {
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, err)
	}
	if err := requireRow(ctx, tx, res, auction.AuctionID); err != nil {
		if errors.Is(err, biddingerrors.ErrAlreadyResolved) {
			return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, biddingerrors.ErrConflict)
		}
		return model.Auction{}, fmt.Errorf("update auction %s: %w", auction.AuctionID, err)
	}

	updated, err := getAuction(ctx, tx, auction.AuctionID)
	if err != nil {
		return model.Auction{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Auction{}, fmt.Errorf("commit update auction %s: %w", auction.AuctionID, err)
	}
	return updated, nil
}

// DeleteAuction removes an auction together with its bids.
func (s *Store) DeleteAuction(ctx context.Context, auctionID string) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete auction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bids WHERE auction_id = ?`, auctionID); err != nil {
		return fmt.Errorf("delete bids of auction %s: %w", auctionID, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM auctions WHERE auction_id = ?`, auctionID)
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete auction %s: %w", auctionID, err)
	}
	if n == 0 {
		return fmt.Errorf("delete auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete auction %s: %w", auctionID, err)
	}
	return nil
}

// ListActiveAuctions returns auctions still open at now, soonest expiry first.
func (s *Store) ListActiveAuctions(ctx context.Context, now time.Time) ([]model.Auction, error) {
	return s.queryAuctions(ctx,
		`SELECT `+auctionColumns+` FROM auctions
		  WHERE resolved_at IS NULL AND expires_at > ?
		  ORDER BY expires_at ASC, auction_id ASC`,
		toMillis(now),
	)
}

// ListAuctionsBySeller returns every auction owned by sellerID.
func (s *Store) ListAuctionsBySeller(ctx context.Context, sellerID string) ([]model.Auction, error) {
	return s.queryAuctions(ctx,
		`SELECT `+auctionColumns+` FROM auctions
		  WHERE seller_id = ?
		  ORDER BY expires_at ASC, auction_id ASC`,
		sellerID,
	)
}

// ListUnresolvedExpired returns auctions at or past expiry that have not been resolved.
func (s *Store) ListUnresolvedExpired(ctx context.Context, now time.Time) ([]model.Auction, error) {
	return s.queryAuctions(ctx,
		`SELECT `+auctionColumns+` FROM auctions
		  WHERE resolved_at IS NULL AND expires_at <= ?
		  ORDER BY expires_at ASC, auction_id ASC`,
		toMillis(now),
	)
}

func (s *Store) queryAuctions(ctx context.Context, query string, args ...any) ([]model.Auction, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	auctions := make([]model.Auction, 0)
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate auctions: %w", err)
	}
	return auctions, nil
}

// GetBidsForAuction returns the auction's bids, leader first.
func (s *Store) GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := getAuction(ctx, s.sqlDB, auctionID); err != nil {
		return nil, err
	}
	bids, err := s.queryBids(ctx, `SELECT `+bidColumns+` FROM bids WHERE auction_id = ? `+bidRanking, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// GetBidForUserAndAuction returns the user's bid on the auction.
func (s *Store) GetBidForUserAndAuction(ctx context.Context, userID, auctionID string) (model.Bid, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE auction_id = ? AND user_id = ?`, auctionID, userID)
	bid, err := scanBid(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Bid{}, fmt.Errorf("get bid of user %s on auction %s: %w", userID, auctionID, biddingerrors.ErrBidNotFound)
		}
		return model.Bid{}, fmt.Errorf("get bid of user %s on auction %s: %w", userID, auctionID, err)
	}
	return bid, nil
}

// GetBidsByUser returns every bid the user has placed, oldest first.
func (s *Store) GetBidsByUser(ctx context.Context, userID string) ([]model.Bid, error) {
	bids, err := s.queryBids(ctx, `SELECT `+bidColumns+` FROM bids WHERE user_id = ? ORDER BY created_at ASC, bid_id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("get bids for user %s: %w", userID, err)
	}
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for user %s: %w", userID, biddingerrors.ErrUserNoBids)
	}
	return bids, nil
}

func (s *Store) queryBids(ctx context.Context, query string, args ...any) ([]model.Bid, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := make([]model.Bid, 0)
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return bids, nil
}

// CommitLeadingBid upserts bid as leader and clears the leading flag on every other bid.
func (s *Store) CommitLeadingBid(ctx context.Context, expectedVersion int64, bid model.Bid) (model.Bid, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Bid{}, fmt.Errorf("begin commit bid: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE auctions SET version = version + 1
		  WHERE auction_id = ? AND version = ? AND resolved_at IS NULL`,
		bid.AuctionID, expectedVersion,
	)
	if err != nil {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}
	if err := requireRow(ctx, tx, res, bid.AuctionID); err != nil {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s at version %d: %w", bid.AuctionID, expectedVersion, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO bids (bid_id, auction_id, user_id, amount, is_leading, outcome, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?, ?)
		 ON CONFLICT (auction_id, user_id) DO UPDATE
		    SET amount = excluded.amount,
		        is_leading = 1,
		        outcome = excluded.outcome,
		        updated_at = excluded.updated_at`,
		bid.BidID,
		bid.AuctionID,
		bid.UserID,
		bid.Amount,
		string(bid.Outcome),
		toMillis(bid.CreatedAt),
		toMillis(bid.UpdatedAt),
	); err != nil {
		if isForeignKeyViolation(err) {
			return model.Bid{}, fmt.Errorf("upsert bid of user %s: %w", bid.UserID, biddingerrors.ErrUserNotFound)
		}
		return model.Bid{}, fmt.Errorf("upsert bid of user %s: %w", bid.UserID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bids SET is_leading = 0 WHERE auction_id = ? AND user_id <> ? AND is_leading = 1`,
		bid.AuctionID, bid.UserID,
	); err != nil {
		return model.Bid{}, fmt.Errorf("clear leading flags on auction %s: %w", bid.AuctionID, err)
	}

	saved, err := scanBid(tx.QueryRowContext(ctx,
		`SELECT `+bidColumns+` FROM bids WHERE auction_id = ? AND user_id = ?`,
		bid.AuctionID, bid.UserID,
	))
	if err != nil {
		return model.Bid{}, fmt.Errorf("read back bid of user %s: %w", bid.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Bid{}, fmt.Errorf("commit bid for auction %s: %w", bid.AuctionID, err)
	}
	return saved, nil
}

// ResolveAuction writes final outcomes and marks the auction resolved.
func (s *Store) ResolveAuction(ctx context.Context, res model.Resolution) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resolve auction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE auctions SET resolved_at = ?, version = version + 1
		  WHERE auction_id = ? AND version = ? AND resolved_at IS NULL`,
		toMillis(res.ResolvedAt), res.AuctionID, res.Version,
	)
	if err != nil {
		return fmt.Errorf("resolve auction %s: %w", res.AuctionID, err)
	}
	if err := requireRow(ctx, tx, result, res.AuctionID); err != nil {
		return fmt.Errorf("resolve auction %s at version %d: %w", res.AuctionID, res.Version, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bids WHERE auction_id = ?`, res.AuctionID).Scan(&count); err != nil {
		return fmt.Errorf("count bids of auction %s: %w", res.AuctionID, err)
	}
	if count != len(res.Results) {
		return fmt.Errorf("resolve auction %s: %d outcomes for %d bids: %w", res.AuctionID, len(res.Results), count, biddingerrors.ErrConflict)
	}

	for bidID, outcome := range res.Results {
		result, err := tx.ExecContext(ctx,
			`UPDATE bids SET outcome = ?, updated_at = ? WHERE bid_id = ? AND auction_id = ?`,
			string(outcome), toMillis(res.ResolvedAt), bidID, res.AuctionID,
		)
		if err != nil {
			return fmt.Errorf("set outcome of bid %s: %w", bidID, err)
		}
		if n, err := result.RowsAffected(); err != nil || n != 1 {
			return fmt.Errorf("set outcome of bid %s: %w", bidID, biddingerrors.ErrConflict)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit resolve auction %s: %w", res.AuctionID, err)
	}
	return nil
}

// requireRow turns a zero-row guarded auction update into the reason it missed.
func requireRow(ctx context.Context, q queryer, res sql.Result, auctionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var resolvedAt sql.NullInt64
	err = q.QueryRowContext(ctx, `SELECT resolved_at FROM auctions WHERE auction_id = ?`, auctionID).Scan(&resolvedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return biddingerrors.ErrAuctionNotFound
	case err != nil:
		return err
	case resolvedAt.Valid:
		return biddingerrors.ErrAlreadyResolved
	default:
		return biddingerrors.ErrConflict
	}
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user      model.User
		role      string
		createdAt int64
	)
	if err := row.Scan(&user.UserID, &user.Username, &user.PasswordHash, &user.Email, &role, &createdAt); err != nil {
		return model.User{}, err
	}
	user.Role = model.Role(role)
	user.CreatedAt = fromMillis(createdAt)
	return user, nil
}

func scanAuction(row rowScanner) (model.Auction, error) {
	var (
		auction    model.Auction
		createdAt  int64
		expiresAt  int64
		resolvedAt sql.NullInt64
	)
	if err := row.Scan(
		&auction.AuctionID,
		&auction.SellerID,
		&auction.Name,
		&auction.Description,
		&auction.ImageURL,
		&auction.StartPrice,
		&auction.ReservePrice,
		&createdAt,
		&expiresAt,
		&resolvedAt,
		&auction.Version,
	); err != nil {
		return model.Auction{}, err
	}
	auction.CreatedAt = fromMillis(createdAt)
	auction.ExpiresAt = fromMillis(expiresAt)
	if resolvedAt.Valid {
		t := fromMillis(resolvedAt.Int64)
		auction.ResolvedAt = &t
	}
	return auction, nil
}

func scanBid(row rowScanner) (model.Bid, error) {
	var (
		bid       model.Bid
		isLeading int
		outcome   string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&bid.BidID,
		&bid.AuctionID,
		&bid.UserID,
		&bid.Amount,
		&isLeading,
		&outcome,
		&createdAt,
		&updatedAt,
	); err != nil {
		return model.Bid{}, err
	}
	bid.IsLeading = isLeading == 1
	bid.Outcome = model.Outcome(outcome)
	bid.CreatedAt = fromMillis(createdAt)
	bid.UpdatedAt = fromMillis(updatedAt)
	return bid, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}
