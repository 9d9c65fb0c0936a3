package query

import (
	"fmt"
	"strings"

	"github.com/oarkflow/orm/model"
	"github.com/oarkflow/orm/sqlbuilder"
)

// JoinKind is the SQL join type, mirroring the original join_t's
// "INNER"/"LEFT"/"CROSS" type strings.
type JoinKind string

const (
	Inner JoinKind = "INNER"
	Left  JoinKind = "LEFT"
	Cross JoinKind = "CROSS"
)

// Join is one fully-rendered `<KIND> JOIN "table" ON <condition>`
// clause, grounded on the original's join_t.
type Join struct {
	rendered string
}

func (j Join) String() string { return j.rendered }

// deriveFK strips a trailing 's' from leftTable and appends
// "_" + leftPK, matching util::make_fk<LeftT>() exactly.
func deriveFK(leftTable, leftPK string) string {
	table := leftTable
	if strings.HasSuffix(table, "s") {
		table = table[:len(table)-1]
	}
	return table + "_" + leftPK
}

// JoinOn renders kind JOIN "R's table" ON "L's table"."L's pk" = "R's table"."fk",
// deriving fk via deriveFK when fk is "". extra, if non-zero, is ANDed
// into the join condition.
func JoinOn[L, R model.Record](kind JoinKind, fk string, extra Condition) Join {
	leftTable := tableNameOf[L]()
	rightTable := tableNameOf[R]()
	leftPK := pkNameOf[L]()
	if fk == "" {
		fk = deriveFK(leftTable, leftPK)
	}
	cond := fmt.Sprintf("%s.%s = %s.%s",
		sqlbuilder.Quote(leftTable), sqlbuilder.Quote(leftPK), sqlbuilder.Quote(rightTable), sqlbuilder.Quote(fk))
	if !extra.IsZero() {
		cond += fmt.Sprintf(" AND (%s)", extra.String())
	}
	return Join{rendered: fmt.Sprintf("%s JOIN %s ON %s", kind, sqlbuilder.Quote(rightTable), cond)}
}

// InnerOn, LeftOn and CrossOn are the thin JoinKind-bound wrappers
// around JoinOn the original exposes as inner_on/left_on/cross_on.
func InnerOn[L, R model.Record](fk string, extra Condition) Join { return JoinOn[L, R](Inner, fk, extra) }
func LeftOn[L, R model.Record](fk string, extra Condition) Join  { return JoinOn[L, R](Left, fk, extra) }
func CrossOn[L, R model.Record](fk string, extra Condition) Join { return JoinOn[L, R](Cross, fk, extra) }
