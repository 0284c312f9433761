package db

import "context"

const userColumns = `user_code, user_name, name, email, mobile_no, user_role, is_admin, password_hash, available_coins`

const getCustomerByCode = `SELECT ` + userColumns + ` FROM users
WHERE user_code = $1 AND user_role = 'Customer'`

func (q *Queries) GetCustomerByCode(ctx context.Context, userCode string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getCustomerByCode, userCode).Scan(
		&u.UserCode, &u.UserName, &u.Name, &u.EmailID, &u.MobileNo, &u.UserRole, &u.IsAdmin, &u.PasswordHash, &u.AvailableCoins,
	)
	return u, err
}

const getUserByUserName = `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`

func (q *Queries) GetUserByUserName(ctx context.Context, userName string) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, getUserByUserName, userName).Scan(
		&u.UserCode, &u.UserName, &u.Name, &u.EmailID, &u.MobileNo, &u.UserRole, &u.IsAdmin, &u.PasswordHash, &u.AvailableCoins,
	)
	return u, err
}
