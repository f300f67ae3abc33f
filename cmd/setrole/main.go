// Утилита прямого переопределения роли пользователя в обход workflow заявок.
//
// Пишет роль вместе с пересчитанным устаревшим зеркалом is_admin и сбрасывает
// закешированную эффективную роль. Флаг -revoke-grant дополнительно закрывает
// активное окно временного доступа.
//
// Использование:
//
//	CONFIG_PATH=./config/local.yaml setrole -uid <uuid> -role admin [-revoke-grant]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/magabrotheeeer/feature-access/internal/cache"
	"github.com/magabrotheeeer/feature-access/internal/config"
	"github.com/magabrotheeeer/feature-access/internal/lib/sl"
	"github.com/magabrotheeeer/feature-access/internal/models"
	"github.com/magabrotheeeer/feature-access/internal/storage/repository"
)

func main() {
	uid := flag.String("uid", "", "UID пользователя")
	role := flag.String("role", "", "новая роль: free, paid или admin")
	revokeGrant := flag.Bool("revoke-grant", false, "закрыть активное окно временного доступа")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	newRole := models.Role(*role)
	if *uid == "" || !newRole.IsValid() {
		fmt.Fprintln(os.Stderr, "usage: setrole -uid <uuid> -role free|paid|admin [-revoke-grant]")
		os.Exit(2)
	}

	cfg := config.MustLoad()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := db.UpdateUserRole(ctx, *uid, newRole)
	if err != nil {
		logger.Error("failed to update role", sl.Err(err))
		os.Exit(1)
	}
	if rows == 0 {
		logger.Error("user not found", slog.String("uid", *uid))
		os.Exit(1)
	}
	logger.Info("role updated", slog.String("uid", *uid), slog.String("role", *role))

	if *revokeGrant {
		if _, err := db.ApplyGrantPatch(ctx, *uid, models.UserGrantPatch{
			TemporaryAccess:       false,
			TemporaryAccessExpiry: time.Now().UTC(),
		}); err != nil {
			logger.Error("failed to revoke grant", sl.Err(err))
			os.Exit(1)
		}
		logger.Info("temporary access revoked", slog.String("uid", *uid))
	}

	// Кеш ролей сбрасывается по возможности; при недоступном redis запись
	// в базе уже сделана, устаревшее значение доживёт только до конца TTL.
	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Warn("cache unavailable, cached role will expire by TTL", sl.Err(err))
		return
	}
	if err := cacheRedis.Invalidate(fmt.Sprintf("role:%s", *uid)); err != nil {
		logger.Warn("failed to invalidate cached role", sl.Err(err))
	}
}
