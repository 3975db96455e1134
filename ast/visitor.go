package ast

type Visitor interface {
	VisitQuery(*Query) error
	VisitFrom(*From) error
	VisitJoin(*Join) error
	VisitWhere(*Where) error
	VisitOrder(*Order) error
}

// Walk visits the clauses of q in source order.
func Walk(v Visitor, q *Query) error {
	for _, f := range q.From {
		if err := f.Accept(v); err != nil {
			return err
		}
	}
	for _, j := range q.Joins {
		if err := j.Accept(v); err != nil {
			return err
		}
	}
	if q.Where != nil && len(q.Where.Tokens) > 0 {
		if err := q.Where.Accept(v); err != nil {
			return err
		}
	}
	for _, o := range q.Order {
		if err := o.Accept(v); err != nil {
			return err
		}
	}
	return nil
}
