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

/*
Package postgres provides the built-in PostgreSQL driver for drivergate.

# Overview

The driver implements the driver.Driver contract on top of database/sql
with lib/pq, so it can be registered like any module-provided driver and
serve postgres:// and postgresql:// URLs through the provider chain.

# Features

  - Connection pooling with fixed, conservative pool sizes
  - Connectivity verified with a ping before the connection is handed out
  - Credentials supplied via properties override those embedded in the URL

# Usage

Register the driver with the process-global registry:

	postgres.Register()

Connect through whatever provider serves the process:

	conn, err := drivermgr.Connect(ctx, "postgres://db.local:5432/app",
	    driver.Properties{"user": "app", "password": secret})

The returned connection wraps a pooled *sql.DB; clients that need to run
queries can reach it through the DB accessor.
*/
package postgres
