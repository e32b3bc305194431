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

// Package mysql provides the built-in MySQL driver backed by database/sql
// and go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"drivergate/driver"
	"drivergate/drivermgr"
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// Driver connects to MySQL databases addressed by mysql:// URLs.
type Driver struct {
	logger *log.Logger

	// open is swapped by tests to avoid a real database.
	open func(dsn string) (*sql.DB, error)
}

// New creates a MySQL driver instance.
func New() *Driver {
	return &Driver{
		logger: log.New(os.Stdout, "[MYSQL] ", log.LstdFlags),
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("mysql", dsn)
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
	return u.Scheme == "mysql"
}

// Connect implements driver.Driver. The URL is translated to the native DSN
// form of the underlying driver; credentials from the properties take
// precedence over credentials embedded in the URL.
func (d *Driver) Connect(ctx context.Context, rawURL string, props driver.Properties) (driver.Conn, error) {
	if !d.AcceptsURL(rawURL) {
		return nil, nil
	}

	dsn, err := toDSN(rawURL, props)
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

	d.logger.Printf("Connected to MySQL (max_conns=%d)", maxOpenConns)
	return &conn{db: db, logger: d.logger}, nil
}

// MajorVersion implements driver.Driver.
func (d *Driver) MajorVersion() int { return 1 }

// MinorVersion implements driver.Driver.
func (d *Driver) MinorVersion() int { return 0 }

// toDSN converts a mysql:// URL into the DSN format the underlying driver
// expects.
func toDSN(rawURL string, props driver.Properties) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")

	if u.User != nil {
		cfg.User = u.User.Username()
		if password, ok := u.User.Password(); ok {
			cfg.Passwd = password
		}
	}
	if user := props.User(); user != "" {
		cfg.User = user
	}
	if password := props.Password(); password != "" {
		cfg.Passwd = password
	}

	for key, values := range u.Query() {
		if len(values) > 0 {
			if cfg.Params == nil {
				cfg.Params = make(map[string]string)
			}
			cfg.Params[key] = values[0]
		}
	}

	return cfg.FormatDSN(), nil
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
	c.logger.Printf("Disconnected from MySQL")
	return nil
}
