package notify

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicleauctiongo/internal/auction"
)

func newDispatcherMock(t *testing.T) (*Dispatcher, sqlmock.Sqlmock, redismock.ClientMock) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	rdc, rdMock := redismock.NewClientMock()
	return NewDispatcher(db, rdc), dbMock, rdMock
}

func TestEventChannel(t *testing.T) {
	assert.Equal(t, "auction:a1:events", EventChannel("a1"))
}

func TestNotifyBroadcastPublishesOnly(t *testing.T) {
	d, dbMock, rdMock := newDispatcherMock(t)
	rdMock.Regexp().ExpectPublish("auction:a1:events", `\{"event":"new_bid".*"auction_id":"a1".*\}`).
		SetVal(1)

	d.Notify(context.Background(), "", auction.NotifNewBid, "New bid", "A bid of 1600.00 was placed", "a1")

	assert.NoError(t, dbMock.ExpectationsWereMet(), "broadcasts must not touch the notifications table")
	assert.NoError(t, rdMock.ExpectationsWereMet())
}

func TestNotifyUserPersistsAndPublishes(t *testing.T) {
	d, dbMock, rdMock := newDispatcherMock(t)
	dbMock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(sqlmock.AnyArg(), "u1", auction.NotifOutbid,
			"You have been outbid", "A higher bid of 1600.00 was placed", "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rdMock.Regexp().ExpectPublish("auction:a1:events", `\{"event":"outbid","user_id":"u1".*\}`).
		SetVal(1)

	d.Notify(context.Background(), "u1", auction.NotifOutbid,
		"You have been outbid", "A higher bid of 1600.00 was placed", "a1")

	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, rdMock.ExpectationsWereMet())
}

func TestNotifyWithoutAuctionSkipsPublish(t *testing.T) {
	d, dbMock, rdMock := newDispatcherMock(t)
	dbMock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WithArgs(sqlmock.AnyArg(), "u1", auction.NotifWon,
			"You won the auction", "Winning amount 1600.00", nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d.Notify(context.Background(), "u1", auction.NotifWon,
		"You won the auction", "Winning amount 1600.00", "")

	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, rdMock.ExpectationsWereMet())
}

// Delivery is fire-and-forget: a failed insert is logged and the publish
// still goes out.
func TestNotifySwallowsPersistFailure(t *testing.T) {
	d, dbMock, rdMock := newDispatcherMock(t)
	dbMock.ExpectExec(regexp.QuoteMeta(`INSERT INTO notifications`)).
		WillReturnError(errors.New("connection refused"))
	rdMock.Regexp().ExpectPublish("auction:a1:events", `.*`).SetVal(1)

	d.Notify(context.Background(), "u1", auction.NotifOutbid, "t", "m", "a1")

	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, rdMock.ExpectationsWereMet())
}

func TestHasNotification(t *testing.T) {
	d, dbMock, _ := newDispatcherMock(t)
	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM notifications`)).
		WithArgs("u1", auction.NotifWon, "a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	got, err := d.HasNotification(context.Background(), "u1", auction.NotifWon, "a1")
	require.NoError(t, err)
	assert.True(t, got)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestHasNotificationPropagatesErrors(t *testing.T) {
	d, dbMock, _ := newDispatcherMock(t)
	boom := errors.New("timeout")
	dbMock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM notifications`)).
		WillReturnError(boom)

	_, err := d.HasNotification(context.Background(), "u1", auction.NotifWon, "a1")
	assert.ErrorIs(t, err, boom)
}
