package database

import (
	"context"
)

const dropUsersTable = `DROP TABLE IF EXISTS users`

func (q *Queries) DropUsersTable(ctx context.Context) error {
	_, err := q.db.Exec(ctx, dropUsersTable)
	return err
}

const createUsersTable = `CREATE TABLE users (
    id      BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name    VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    email   VARCHAR(255) NOT NULL,
    CONSTRAINT users_email_key UNIQUE (email)
)`

func (q *Queries) CreateUsersTable(ctx context.Context) error {
	_, err := q.db.Exec(ctx, createUsersTable)
	return err
}

const usersTableExists = `SELECT to_regclass('users') IS NOT NULL`

func (q *Queries) UsersTableExists(ctx context.Context) (bool, error) {
	row := q.db.QueryRow(ctx, usersTableExists)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertUser = `INSERT INTO users (name, surname, email) VALUES ($1, $2, $3)`

type InsertUserParams struct {
	Name    string
	Surname string
	Email   string
}

func (q *Queries) InsertUser(ctx context.Context, arg InsertUserParams) error {
	_, err := q.db.Exec(ctx, insertUser, arg.Name, arg.Surname, arg.Email)
	return err
}

const databaseExists = `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`

func (q *Queries) DatabaseExists(ctx context.Context, name string) (bool, error) {
	row := q.db.QueryRow(ctx, databaseExists, name)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}
