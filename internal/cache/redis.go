// Package cache реализует клиент Redis. Помимо обычного кеша он хранит
// одноразовую передачу номера из потока выезда в поток оплаты
// (current_payment_plate): значение записывается при выезде и читается
// ровно один раз при загрузке формы оплаты.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/parking-manager/internal/config"
)

// Ключи кеша.
const (
	// KeyCurrentPaymentPlate — одноразовая передача номера в поток оплаты.
	KeyCurrentPaymentPlate = "current_payment_plate"
	// KeyPaymentsView — кешированная проекция списка платежей. Сбрасывается
	// при любой мутации платежей или пользователей.
	KeyPaymentsView = "payments_view"
)

type Cache struct {
	Db *redis.Client
}

func InitServer(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.InitServer"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

func (c *Cache) Get(key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.Db.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	err = json.Unmarshal([]byte(val), result)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *Cache) Set(key string, value any, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Db.Set(context.Background(), key, jsonData, expiration).Err()
}

func (c *Cache) Invalidate(key string) error {
	return c.Db.Del(context.Background(), key).Err()
}

// SetCurrentPlate запоминает номер для потока оплаты. Значение живёт час:
// оператор открывает форму оплаты сразу после выезда.
func (c *Cache) SetCurrentPlate(ctx context.Context, plate string) error {
	const op = "cache.SetCurrentPlate"
	if err := c.Db.Set(ctx, KeyCurrentPaymentPlate, plate, time.Hour).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ConsumeCurrentPlate читает и удаляет переданный номер. Возвращает
// false, если передача отсутствует или уже была прочитана.
func (c *Cache) ConsumeCurrentPlate(ctx context.Context) (string, bool, error) {
	const op = "cache.ConsumeCurrentPlate"
	val, err := c.Db.GetDel(ctx, KeyCurrentPaymentPlate).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}
