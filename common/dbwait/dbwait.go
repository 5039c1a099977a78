package dbwait

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// timeout waiting for database connection to be established
const timeout = 2 * time.Minute

// Pinger is the part of *sql.DB and *sqlx.DB that Wait needs.
type Pinger interface {
	Ping() error
}

// Wait waits for database connection to be established
func Wait(db Pinger) error {
	deadline := time.Now().Add(timeout)
	var err error
	for tries := 0; time.Now().Before(deadline); tries++ {
		err = db.Ping()
		if err == nil {
			return nil
		}
		log.Debugf("db connection not established, error: %s; retrying...", err)
		time.Sleep(time.Second << uint(tries))
	}
	return errors.Wrapf(err, "db connection not established after %s", timeout)
}
