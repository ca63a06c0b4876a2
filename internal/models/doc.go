// Package models defines the core domain models for the microsave ledger.
//
// A Group is the ownership and authorization scope for everything else:
// Budgets, Expenses and SavingsGoals each belong to exactly one group for
// their lifetime. Splits, Categories and Contributions have no identity of
// their own outside the entity that owns them.
//
// Derived counters (Budget.TotalSpent, Category.Spent,
// SavingsGoal.CurrentAmount) are maintained by the storage layer as explicit
// state rather than recomputed on read; the reconcile package can rebuild
// them from source records to detect drift.
//
// Relationships are held as ID strings instead of pointers to avoid circular
// references. Ownership (group -> budgets/expenses/goals) lives in the
// store's indexed group_id columns, not in embedded ID lists on Group.
package models
