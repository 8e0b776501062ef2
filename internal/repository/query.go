package repository

import (
	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
)

func contains(s string) string {
	return "%" + s + "%"
}

// where renders a squirrel predicate into a gorm condition. gorm rebinds the
// ? placeholders for the active dialect.
func where(tx *gorm.DB, pred sq.Sqlizer) *gorm.DB {
	query, args, err := pred.ToSql()
	if err != nil {
		_ = tx.AddError(err)
		return tx
	}
	return tx.Where(query, args...)
}

func exists(sub sq.SelectBuilder) sq.Sqlizer {
	query, args, err := sub.ToSql()
	if err != nil {
		return errSqlizer{err}
	}
	return sq.Expr("EXISTS ("+query+")", args...)
}

type errSqlizer struct{ err error }

func (e errSqlizer) ToSql() (string, []interface{}, error) {
	return "", nil, e.err
}
