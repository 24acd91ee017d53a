package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/flyfox666/Coffeemaster-AI/internal/builder"
	"github.com/flyfox666/Coffeemaster-AI/internal/config"
	"github.com/flyfox666/Coffeemaster-AI/internal/session"
	"github.com/flyfox666/Coffeemaster-AI/pkg/asset"
	"github.com/flyfox666/Coffeemaster-AI/pkg/domain"

	"golang.org/x/sync/errgroup"
)

// shutdownGrace は、SIGINT/SIGTERM受信後に飛行中のリクエストへ与える猶予なのだ。
const shutdownGrace = 10 * time.Second

// ExecuteServe は、ブラウザUIとJSON APIを提供するHTTPサーバーを起動するのだ。
// SIGINT/SIGTERM を受けたらグレースフルに停止する。バックグラウンドの
// 画像シーケンサーもサーバーと同じコンテキストにぶら下がっているので、
// 停止と同時に協調的にキャンセルされるのだよ。
func ExecuteServe(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	srv, err := builder.BuildServer(ctx, appCtx)
	if err != nil {
		return fmt.Errorf("サーバーの構築に失敗したのだ: %w", err)
	}

	port := cfg.Port
	if cfg.Options.Port != "" {
		port = cfg.Options.Port
	}

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("コーヒーマスターが開店したのだ！", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTPサーバーが異常終了したのだ: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("停止シグナルを受けたのだ。閉店作業に入るのだ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("閉店完了なのだ。また明日なのだ！")
	return nil
}

// ExecuteBrew は、サーバーを立てずにレシピ1件と画像一式を生成して
// ローカルディレクトリへ保存するワンショット実行なのだ。
func ExecuteBrew(ctx context.Context, cfg *config.Config) error {
	appCtx, err := setupAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	opts := appCtx.Options

	lang := opts.Language
	if lang == "" {
		lang = config.DefaultLanguage
	}

	recipeRunner, err := builder.BuildRecipeRunner(appCtx)
	if err != nil {
		return fmt.Errorf("RecipeRunnerの構築に失敗したのだ: %w", err)
	}

	slog.Info("Phase 1: レシピ生成を開始するのだ...", "request", opts.Request)
	recipe, err := recipeRunner.Run(ctx, opts.Request, lang)
	if err != nil {
		return fmt.Errorf("レシピ生成に失敗したのだ: %w", err)
	}
	slog.Info("レシピが完成したのだ", "title", recipe.Title, "steps", len(recipe.Steps))

	// 画像シーケンサーはサーバーモードと同じものを同期実行するのだ。
	// 失敗した画像のスロットは空のまま保存対象から外れるのだよ。
	ref := appCtx.Store.Create(recipe)
	illustrator := builder.BuildIllustrationRunner(appCtx)

	slog.Info("Phase 2: 画像生成を開始するのだ...", "steps", len(recipe.Steps))
	illustrator.Run(ctx, recipe, ref)

	snap, err := appCtx.Store.Snapshot(ref.ID)
	if err != nil {
		return fmt.Errorf("生成結果の取得に失敗したのだ: %w", err)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir
	}

	slog.Info("Phase 3: 保存処理を開始するのだ...", "dir", outputDir)
	if err := saveBrewResult(outputDir, recipe, snap); err != nil {
		return fmt.Errorf("保存処理に失敗したのだ: %w", err)
	}

	slog.Info("一杯分の生成工程がすべて完了したのだ！", "dir", outputDir)
	return nil
}

// setupAppContext は、提供された設定と共有コンポーネントを使用して、アプリケーションコンテキストを初期化して返すのだ。
// ライフサイクル管理用の context と設定オブジェクトを受け取るのだ。
// 初期化中にエラーが発生した場合は、AppContext のポインタとエラーを返すのだ。
func setupAppContext(ctx context.Context, cfg *config.Config) (*builder.AppContext, error) {
	aiClient, err := builder.InitializeAIClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai client: %w", err)
	}

	store := session.NewStore(cfg.SessionTTL, config.DefaultSessionCleanup)

	appCtx := builder.NewAppContext(cfg, aiClient, store)
	return &appCtx, nil
}

// saveBrewResult は、レシピJSONと生成できた画像をディレクトリへ書き出すのだ。
func saveBrewResult(outputDir string, recipe domain.Recipe, snap session.Snapshot) error {
	imageDir := filepath.Join(outputDir, asset.DefaultImageDir)
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗したのだ: %w", err)
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return fmt.Errorf("レシピのエンコードに失敗したのだ: %w", err)
	}
	recipePath, err := asset.ResolveOutputPath(outputDir, asset.DefaultRecipeJSON)
	if err != nil {
		return err
	}
	if err := os.WriteFile(recipePath, data, 0o644); err != nil {
		return fmt.Errorf("レシピの保存に失敗したのだ: %w", err)
	}

	if snap.MainImage != nil {
		cupPath, err := asset.ResolveOutputPath(imageDir, asset.DefaultCupFileName)
		if err != nil {
			return err
		}
		if err := os.WriteFile(cupPath, snap.MainImage.Data, 0o644); err != nil {
			return fmt.Errorf("メイン画像の保存に失敗したのだ: %w", err)
		}
	}

	stepBase, err := asset.ResolveOutputPath(imageDir, asset.DefaultStepFileName)
	if err != nil {
		return err
	}
	for idx, img := range snap.StepImages {
		stepPath, err := asset.GenerateIndexedPath(stepBase, idx+1)
		if err != nil {
			return err
		}
		if err := os.WriteFile(stepPath, img.Data, 0o644); err != nil {
			return fmt.Errorf("手順画像の保存に失敗したのだ: %w", err)
		}
	}
	return nil
}
