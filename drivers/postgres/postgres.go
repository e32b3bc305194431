// Copyright 2025 Drivergate
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"drivergate/driver"
	"drivergate/drivermgr"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// Driver connects to PostgreSQL databases addressed by postgres:// or
// postgresql:// URLs.
type Driver struct {
	logger *log.Logger

	// open is swapped by tests to avoid a real database.
	open func(dsn string) (*sql.DB, error)
}

// New creates a PostgreSQL driver instance.
func New() *Driver {
	return &Driver{
		logger: log.New(os.Stdout, "[POSTGRES] ", log.LstdFlags),
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("postgres", dsn)
		},
	}
}

// Register registers a driver instance with the process-global registry.
func Register() {
	drivermgr.Register(New())
}

// AcceptsURL implements driver.Driver.
func (d *Driver) AcceptsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "postgres" || u.Scheme == "postgresql"
}

// Connect implements driver.Driver. Credentials from the properties take
// precedence over credentials embedded in the URL.
func (d *Driver) Connect(ctx context.Context, rawURL string, props driver.Properties) (driver.Conn, error) {
	if !d.AcceptsURL(rawURL) {
		return nil, nil
	}

	dsn, err := withCredentials(rawURL, props)
	if err != nil {
		return nil, fmt.Errorf("invalid connection URL: %w", err)
	}

	db, err := d.open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d.logger.Printf("Connected to PostgreSQL (max_conns=%d)", maxOpenConns)
	return &conn{db: db, logger: d.logger}, nil
}

// MajorVersion implements driver.Driver.
func (d *Driver) MajorVersion() int { return 1 }

// MinorVersion implements driver.Driver.
func (d *Driver) MinorVersion() int { return 0 }

// withCredentials merges the conventional user and password properties into
// the URL's user information.
func withCredentials(rawURL string, props driver.Properties) (string, error) {
	if props.User() == "" && props.Password() == "" {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	user := props.User()
	if user == "" && u.User != nil {
		user = u.User.Username()
	}
	password := props.Password()
	if password == "" && u.User != nil {
		password, _ = u.User.Password()
	}

	if password != "" {
		u.User = url.UserPassword(user, password)
	} else {
		u.User = url.User(user)
	}
	return u.String(), nil
}

// conn wraps the pooled database handle.
type conn struct {
	db     *sql.DB
	logger *log.Logger
}

// DB exposes the underlying handle for clients that need more than the
// plain connection contract.
func (c *conn) DB() *sql.DB { return c.db }

func (c *conn) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	c.logger.Printf("Disconnected from PostgreSQL")
	return nil
}
