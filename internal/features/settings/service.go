// Package settings — service.go собирает Gameplay из БД и дефолтов
// и реализует админ-обновление настроек, защищённое паролем.
package settings

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"wishmana.ru/wish-bot/internal/common"
	"wishmana.ru/wish-bot/internal/config"
)

// Service управляет настройками экономики.
type Service struct {
	repo *Repository
	cfg  *config.Config
}

// NewService создаёт сервис настроек.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Gameplay возвращает актуальные игровые таблицы.
// Читает БД при каждом вызове: так настройки можно менять на живой
// системе. Ключи, которых нет в БД, берутся из дефолтов; битый JSON
// логируется и тоже заменяется дефолтом — геймплей не должен падать
// из-за кривой настройки.
func (s *Service) Gameplay(ctx context.Context) (*Gameplay, error) {
	values, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return mergeGameplay(values), nil
}

// Update записывает новое значение ключа настройки.
// Единственный путь изменения economy_settings: игровые операции
// настройки не трогают. Защищён паролем администратора (Argon2id).
func (s *Service) Update(ctx context.Context, password, key string, value []byte) error {
	if !verifyArgon2id(password, s.cfg.AdminPasswordHash) {
		return common.ErrWrongPassword
	}
	if !knownKey(key) {
		return common.ErrUnknownSetting
	}
	if !json.Valid(value) {
		return &common.ValidationError{Violations: []string{"значение должно быть корректным JSON"}}
	}
	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return err
	}
	log.WithField("key", key).Info("Настройка экономики обновлена")
	return nil
}

// knownKey проверяет, что ключ входит в известный набор.
func knownKey(key string) bool {
	switch key {
	case KeyQuotaBases, KeyEnchantBaseCosts, KeyPriorityMultipliers,
		KeyDifficultyRewards, KeyExperiencePerAction, KeyCategoryMultipliers:
		return true
	}
	return false
}

// mergeGameplay накладывает значения из БД на дефолты.
func mergeGameplay(values map[string][]byte) *Gameplay {
	g := DefaultGameplay()

	decode := func(key string, dst interface{}) bool {
		raw, ok := values[key]
		if !ok {
			return false
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			log.WithError(err).WithField("key", key).Error("Битое значение настройки, используется дефолт")
			return false
		}
		return true
	}

	decode(KeyQuotaBases, &g.QuotaBases)
	decode(KeyEnchantBaseCosts, &g.EnchantBaseCosts)
	decode(KeyDifficultyRewards, &g.DifficultyRewards)
	decode(KeyExperiencePerAction, &g.ExperiencePerAction)
	decode(KeyCategoryMultipliers, &g.CategoryMultipliers)

	// JSON-ключи всегда строки, поэтому множители приоритета
	// декодируем отдельно и конвертируем в map[int]int64.
	var rawMultipliers map[string]int64
	if decode(KeyPriorityMultipliers, &rawMultipliers) {
		multipliers := make(map[int]int64, len(rawMultipliers))
		ok := true
		for k, v := range rawMultipliers {
			level, err := strconv.Atoi(k)
			if err != nil {
				log.WithField("level", k).Error("Некорректный уровень в priority_multipliers, используется дефолт")
				ok = false
				break
			}
			multipliers[level] = v
		}
		if ok && len(multipliers) > 0 {
			g.PriorityMultipliers = multipliers
		}
	}

	return g
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}
