package repository

import (
	"context"
	"errors"

	"orderpay/internal/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var ErrTransactionExists = errors.New("order already has a transaction")

const mysqlErrDuplicateEntry = 1062

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts trans. A second transaction for the same order violates the
// unique order index and comes back as ErrTransactionExists.
func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).Create(trans).Error
	if isDuplicateKey(err) {
		return ErrTransactionExists
	}
	return err
}

// GetByOrderRefID returns nil, nil when the order has no transaction yet.
func (r *TransactionRepository) GetByOrderRefID(ctx context.Context, tx *gorm.DB, orderRefID int64) (*model.Transaction, error) {
	if tx == nil {
		tx = r.db
	}
	var trans model.Transaction
	err := tx.WithContext(ctx).Where("order_ref_id = ?", orderRefID).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry
}
