package holdstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// deleteScript удаляет удержание атомарно: возвращает 1 только тому, кто удалил запись.
// Ссылка сессии удаляется, только если она указывает на это удержание.
var deleteScript = redis.NewScript(`
local n = redis.call('HDEL', KEYS[1], ARGV[1])
if n == 1 and redis.call('GET', KEYS[2]) == ARGV[1] then
	redis.call('DEL', KEYS[2])
end
return n
`)

// saveScript записывает удержание и переключает на него ссылку сессии.
// Возвращает токен удержания, которое было текущим до этого, или пустую строку.
var saveScript = redis.NewScript(`
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
local prev = redis.call('GETSET', KEYS[2], ARGV[1])
if prev and prev ~= ARGV[1] then
	return prev
end
return ''
`)

type holdRecord struct {
	Token     string        `json:"token"`
	SessionID string        `json:"sessionId"`
	FormID    int64         `json:"formId"`
	Claims    []claimRecord `json:"claims"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type claimRecord struct {
	SlotID int64 `json:"slotId"`
	Seats  int   `json:"seats"`
}

// Redis хранилище удержаний в Redis, общее для нескольких экземпляров сервиса.
// Записи лежат в одном хеше без TTL: истекшее удержание остается в хранилище,
// пока его не освободят лениво или фоновой очисткой.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis создает хранилище удержаний в Redis
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (r *Redis) holdsKey() string {
	return r.prefix + ":hold:records"
}

func (r *Redis) sessionKey(sessionID string, formID int64) string {
	return fmt.Sprintf("%s:hold:session:%s:%d", r.prefix, sessionID, formID)
}

// Save сохраняет удержание и делает его текущим для пары (сессия, форма).
// Возвращает токен вытесненного удержания этой пары, если оно было.
func (r *Redis) Save(ctx context.Context, hold *domain.Hold) (domain.HoldToken, error) {
	data, err := json.Marshal(toRecord(hold))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodeHold, err)
	}

	keys := []string{
		r.holdsKey(),
		r.sessionKey(hold.SessionID, hold.FormID),
	}

	prev, err := saveScript.Run(ctx, r.client, keys, string(hold.Token), data).Text()
	if err != nil {
		return "", fmt.Errorf("%w: Save - %v", ErrStore, err)
	}

	return domain.HoldToken(prev), nil
}

// Get получает удержание по токену
func (r *Redis) Get(ctx context.Context, token domain.HoldToken) (*domain.Hold, error) {
	data, err := r.client.HGet(ctx, r.holdsKey(), string(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("%w: Get - %v", ErrStore, err)
	}

	return decode(data)
}

// GetBySession получает текущее удержание сессии на форме
func (r *Redis) GetBySession(ctx context.Context, sessionID string, formID int64) (*domain.Hold, error) {
	token, err := r.client.Get(ctx, r.sessionKey(sessionID, formID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("%w: GetBySession - %v", ErrStore, err)
	}

	return r.Get(ctx, domain.HoldToken(token))
}

// Delete удаляет удержание. true только у того вызова, который действительно его удалил.
func (r *Redis) Delete(ctx context.Context, hold *domain.Hold) (bool, error) {
	keys := []string{
		r.holdsKey(),
		r.sessionKey(hold.SessionID, hold.FormID),
	}

	n, err := deleteScript.Run(ctx, r.client, keys, string(hold.Token)).Int()
	if err != nil {
		return false, fmt.Errorf("%w: Delete - %v", ErrStore, err)
	}

	return n == 1, nil
}

// List возвращает все удержания, включая истекшие
func (r *Redis) List(ctx context.Context) ([]*domain.Hold, error) {
	values, err := r.client.HGetAll(ctx, r.holdsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: List - %v", ErrStore, err)
	}

	holds := make([]*domain.Hold, 0, len(values))
	for _, v := range values {
		h, err := decode([]byte(v))
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}

	return holds, nil
}

func toRecord(h *domain.Hold) holdRecord {
	claims := make([]claimRecord, 0, len(h.Claims))
	for _, c := range h.Claims {
		claims = append(claims, claimRecord{SlotID: c.SlotID, Seats: c.Seats})
	}
	return holdRecord{
		Token:     string(h.Token),
		SessionID: h.SessionID,
		FormID:    h.FormID,
		Claims:    claims,
		CreatedAt: h.CreatedAt,
		ExpiresAt: h.ExpiresAt,
	}
}

func decode(data []byte) (*domain.Hold, error) {
	var rec holdRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeHold, err)
	}

	claims := make([]domain.SeatClaim, 0, len(rec.Claims))
	for _, c := range rec.Claims {
		claims = append(claims, domain.SeatClaim{SlotID: c.SlotID, Seats: c.Seats})
	}

	return &domain.Hold{
		Token:     domain.HoldToken(rec.Token),
		SessionID: rec.SessionID,
		FormID:    rec.FormID,
		Claims:    claims,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}
