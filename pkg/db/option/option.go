package option

import (
	"fmt"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm query before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

// Condition expresses a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type operatorOption struct {
	cond Condition
}

func (o operatorOption) Apply(db *gorm.DB) *gorm.DB {
	if o.cond.Operator == IN {
		return db.Where(fmt.Sprintf("%s IN ?", o.cond.Field), o.cond.Value)
	}
	return db.Where(fmt.Sprintf("%s %s ?", o.cond.Field, o.cond.Operator), o.cond.Value)
}

// ApplyOperator adds a comparison condition to the query.
func ApplyOperator(cond Condition) QueryOption {
	return operatorOption{cond: cond}
}

type orderOption struct {
	expr string
}

func (o orderOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Order(o.expr)
}

// WithOrder adds an ORDER BY expression.
func WithOrder(expr string) QueryOption {
	return orderOption{expr: expr}
}

type limitOption struct {
	limit int
}

func (o limitOption) Apply(db *gorm.DB) *gorm.DB {
	if o.limit <= 0 {
		return db
	}
	return db.Limit(o.limit)
}

// WithLimit caps the result size.
func WithLimit(limit int) QueryOption {
	return limitOption{limit: limit}
}
