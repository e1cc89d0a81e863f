/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package database

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/tradedesk/config"
	"github.com/blnkfinance/tradedesk/internal/apierror"

	_ "github.com/lib/pq"
)

var instance *Datasource
var once sync.Once

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Datasource is the PostgreSQL implementation of IDataSource. A Datasource
// bound to a *sql.Tx (see WithTx) runs every statement inside that transaction.
type Datasource struct {
	Conn *sql.DB
	tx   *sql.Tx
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	err = db.Ping()
	if err != nil {
		log.Printf("database Connection error: %v", err)
		return nil, err
	}
	return db, nil
}

func (d Datasource) q() querier {
	if d.tx != nil {
		return d.tx
	}
	return d.Conn
}

// lockClause row-locks selected rows when running inside a unit of work.
func (d Datasource) lockClause() string {
	if d.tx != nil {
		return " FOR UPDATE"
	}
	return ""
}

// WithTx runs fn inside a single database transaction. The transaction commits
// when fn returns nil and rolls back on error or panic. Calling WithTx on a
// Datasource that is already bound to a transaction joins it.
func (d Datasource) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if d.tx != nil {
		return fn(ctx, d)
	}

	sqlTx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return apierror.Internal("failed to begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, Datasource{Conn: d.Conn, tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logrus.WithError(rbErr).Error("failed to roll back transaction")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return apierror.Internal("failed to commit transaction", err)
	}
	return nil
}
