package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`

	MongoCode    int    `json:"mongo_code,omitempty"`
	MongoName    string `json:"mongo_name,omitempty"`
	MongoMessage string `json:"mongo_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
		return d
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) && len(writeErr.WriteErrors) > 0 {
		first := writeErr.WriteErrors[0]
		d.MongoCode = first.Code
		d.MongoMessage = first.Message
		return d
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		d.MongoCode = int(cmdErr.Code)
		d.MongoName = cmdErr.Name
		d.MongoMessage = cmdErr.Message
		return d
	}

	return d
}
