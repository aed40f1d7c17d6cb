package models

// All returns every model the schema needs, in dependency order.
func All() []interface{} {
	return []interface{}{
		&School{},
		&Parent{},
		&ClassRoom{},
		&Term{},
		&Student{},
		&FeeStructure{},
		&Invoice{},
		&Payment{},
		&LedgerEntry{},
		&BankTransaction{},
		&ReconciliationBatch{},
		&ReconciliationLog{},
		&MatchAuditLog{},
	}
}
