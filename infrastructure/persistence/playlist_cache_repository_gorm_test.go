package persistence

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"playlist-service/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestPlaylistCacheRepositoryGorm_GetPlaylist(t *testing.T) {
	gormDB, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `playlist_cache` WHERE playlist_id = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"playlist_id", "items", "fetched_at"}).
			AddRow("PL123", testItemsJSON, testFetchedAt))

	rec, err := NewPlaylistCacheRepositoryGorm(gormDB).GetPlaylist(context.Background(), "PL123")
	require.NoError(t, err)
	require.Equal(t, &model.CacheRecord{PlaylistID: "PL123", Items: testItems, FetchedAt: testFetchedAt}, rec)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaylistCacheRepositoryGorm_Miss(t *testing.T) {
	gormDB, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `playlist_cache`")).
		WillReturnRows(sqlmock.NewRows([]string{"playlist_id", "items", "fetched_at"}))

	rec, err := NewPlaylistCacheRepositoryGorm(gormDB).GetPlaylist(context.Background(), "NOPE")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestPlaylistCacheRepositoryGorm_UpsertPlaylist(t *testing.T) {
	gormDB, mock := newGormMock(t)

	pattern := strings.Join([]string{
		regexp.QuoteMeta("INSERT INTO `playlist_cache` (`playlist_id`,`items`,`fetched_at`) VALUES (?,?,?)"),
		regexp.QuoteMeta("ON DUPLICATE KEY UPDATE `items`=IF(VALUES(fetched_at) >= fetched_at, VALUES(items), items)"),
		regexp.QuoteMeta("`fetched_at`=IF(VALUES(fetched_at) >= fetched_at, VALUES(fetched_at), fetched_at)"),
	}, ".*")

	mock.ExpectBegin()
	mock.ExpectExec(pattern).
		WithArgs("PL123", testItemsJSON, testFetchedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := NewPlaylistCacheRepositoryGorm(gormDB).UpsertPlaylist(context.Background(), "PL123", testItems, testFetchedAt)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaylistCacheRepositoryGorm_NilDB(t *testing.T) {
	repo := NewPlaylistCacheRepositoryGorm(nil)
	rec, err := repo.GetPlaylist(context.Background(), "PL")
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Error(t, repo.AutoMigrate())
}

func TestOpenPlaylistCacheGorm_ClosesPoolWhenMigrationFails(t *testing.T) {
	gormDB, mock := newGormMock(t)
	mock.MatchExpectationsInOrder(false)
	// Every migration statement is unexpected and fails; only the close is allowed.
	mock.ExpectClose()

	repo, closeFn, err := OpenPlaylistCacheGorm(gormDB)
	require.Error(t, err)
	require.Nil(t, repo)
	require.NotNil(t, closeFn)
	require.NoError(t, mock.ExpectationsWereMet())
}
