package dao

import (
	"database/sql"

	"github.com/si451/creatorconnect/backend/model"
)

// PaymentRepository persists verified payments. A row exists only after
// order creation, checkout and verification have all succeeded.
type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) CreatePayment(tenant string, p *model.PaymentRecord) error {
	query := `INSERT INTO payments (id, tenant, deal_id, order_id, key_id, amount, creator_email, transaction_id, payment_date, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Exec(query, p.ID, tenant, p.DealID, p.OrderID, p.KeyID, p.Amount, p.CreatorEmail, p.TransactionID, p.PaymentDate, p.CreatedAt)
	return err
}

func (r *PaymentRepository) GetByDealID(dealID string) (*model.PaymentRecord, error) {
	query := `SELECT id, deal_id, order_id, key_id, amount, creator_email, transaction_id, payment_date, created_at
	          FROM payments WHERE deal_id = ? ORDER BY created_at DESC LIMIT 1`
	row := r.db.QueryRow(query, dealID)

	var p model.PaymentRecord
	if err := row.Scan(&p.ID, &p.DealID, &p.OrderID, &p.KeyID, &p.Amount, &p.CreatorEmail, &p.TransactionID, &p.PaymentDate, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListByTenant(tenant string) ([]model.PaymentRecord, error) {
	query := `SELECT id, deal_id, order_id, key_id, amount, creator_email, transaction_id, payment_date, created_at
	          FROM payments WHERE tenant = ? ORDER BY created_at DESC`
	rows, err := r.db.Query(query, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.PaymentRecord
	for rows.Next() {
		var p model.PaymentRecord
		if err := rows.Scan(&p.ID, &p.DealID, &p.OrderID, &p.KeyID, &p.Amount, &p.CreatorEmail, &p.TransactionID, &p.PaymentDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
