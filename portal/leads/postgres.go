package leads

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Import the postgres sql driver
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
	_ "gopkg.in/mattes/migrate.v1/driver/postgres" // Import the postgres migrations driver
	"gopkg.in/mattes/migrate.v1/migrate"

	"github.com/objexa/service/common/dbwait"
)

const tableLeads = "demo_bookings"

var leadColumns = []string{"id", "name", "email", "phone", "practice_name", "created_at"}

// postgres represents a connection to the database.
type postgres struct {
	dbProxy
	squirrel.StatementBuilderType
}

type dbProxy interface {
	squirrel.BaseRunner
	Selectx(dest interface{}, query string, args ...interface{}) error
}

// sqlxDB and sqlxTx give *sqlx.DB and *sqlx.Tx the same Select.
type sqlxDB struct{ *sqlx.DB }

func (d sqlxDB) Selectx(dest interface{}, query string, args ...interface{}) error {
	return d.DB.Select(dest, query, args...)
}

type sqlxTx struct{ *sqlx.Tx }

func (t sqlxTx) Selectx(dest interface{}, query string, args ...interface{}) error {
	return t.Tx.Select(dest, query, args...)
}

// newPostgres creates a database connection.
func newPostgres(databaseURI, migrationsDir string) (*postgres, error) {
	u, err := url.Parse(databaseURI)
	if err != nil {
		return nil, err
	}
	intOptions := map[string]int{
		"max_open_conns": 0,
		"max_idle_conns": 0,
	}
	query := u.Query()
	for k := range intOptions {
		if valStr := query.Get(k); valStr != "" {
			query.Del(k) // Delete these options so lib/pq doesn't panic
			val, err := strconv.ParseInt(valStr, 10, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", k)
			}
			intOptions[k] = int(val)
		}
	}
	u.RawQuery = query.Encode()
	databaseURI = u.String()

	db, err := sqlx.Open("postgres", databaseURI)
	if err != nil {
		return nil, err
	}

	if err := dbwait.Wait(db); err != nil {
		return nil, errors.Wrap(err, "cannot establish db connection")
	}

	if migrationsDir != "" {
		log.Infof("Running Database Migrations...")
		if errs, ok := migrate.UpSync(databaseURI, migrationsDir); !ok {
			for _, err := range errs {
				log.Error(err)
			}
			return nil, errors.New("Database migrations failed")
		}
	}

	db.SetMaxOpenConns(intOptions["max_open_conns"])
	db.SetMaxIdleConns(intOptions["max_idle_conns"])

	return &postgres{
		dbProxy:              sqlxDB{db},
		StatementBuilderType: statementBuilder(db),
	}, nil
}

var statementBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).RunWith

func (d *postgres) Transaction(f func(DB) error) error {
	if _, ok := d.dbProxy.(sqlxTx); ok {
		// Already in a nested transaction
		return f(d)
	}

	tx, err := d.dbProxy.(sqlxDB).Beginx()
	if err != nil {
		return err
	}
	err = f(&postgres{dbProxy: sqlxTx{tx}, StatementBuilderType: statementBuilder(tx)})
	if err != nil {
		// Rollback error is ignored as we already have one in progress
		if err2 := tx.Rollback(); err2 != nil {
			log.Warnf("transaction rollback: %v (ignored)", err2)
		}
		return err
	}
	return tx.Commit()
}

func (d *postgres) InsertLead(ctx context.Context, lead *Lead) error {
	id := uuid.NewV4().String()
	now := time.Now().UTC()
	_, err := d.Insert(tableLeads).
		Columns(leadColumns...).
		Values(id, lead.Name, lead.Email, lead.Phone, lead.PracticeName, now).
		Exec()
	if err != nil {
		return err
	}
	lead.ID = id
	lead.CreatedAt = now
	return nil
}

func (d *postgres) ListLeads(ctx context.Context, page int) ([]*Lead, error) {
	query, args, err := d.Select(leadColumns...).
		From(tableLeads).
		OrderBy("created_at DESC").
		Limit(PageSize).
		Offset(offset(page)).
		ToSql()
	if err != nil {
		return nil, err
	}
	leads := []*Lead{}
	if err := d.Selectx(&leads, query, args...); err != nil {
		return nil, err
	}
	return leads, nil
}

func (d *postgres) Close(ctx context.Context) error {
	if db, ok := d.dbProxy.(sqlxDB); ok {
		return db.Close()
	}
	return nil
}
