package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pingraph/pingraph/pkg/cache"
	"github.com/pingraph/pingraph/pkg/manifest"
	"github.com/pingraph/pingraph/pkg/output"
	"github.com/pingraph/pingraph/pkg/resolve"
)

// resolveOpts holds the command-line flags for the resolve command.
type resolveOpts struct {
	configPath string
	manifests  []string // local manifest files resolved as top-level requests
	dev        bool
	refresh    bool
	noCache    bool
	jsonOut    bool
	outputDir  string
	fromDirs   []string // prior output directories to preload
	extensions []string // name=dir extension libraries to preload
	registries []string
	blacklist  []string
	cacheDepth int
}

// newResolveCmd creates the resolve command.
func newResolveCmd() *cobra.Command {
	opts := resolveOpts{}

	cmd := &cobra.Command{
		Use:   "resolve [name[@range]...]",
		Short: "Resolve packages and their transitive dependencies",
		Long: `Resolve packages and their transitive dependencies to exact pinned
versions. Ranges accept semver constraints, dist-tags, GitHub references,
and raw archive URLs.

Examples:
  pingraph resolve left-pad@^1.0.0
  pingraph resolve left-pad@latest react@18.2.0
  pingraph resolve widgets@github:acme/widgets#main
  pingraph resolve --manifest package.json --dev
  pingraph resolve left-pad@1.3.0 --from ./out --output ./out`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/pingraph/config.toml)")
	cmd.Flags().StringSliceVarP(&opts.manifests, "manifest", "m", nil, "local manifest file to resolve")
	cmd.Flags().BoolVar(&opts.dev, "dev", false, "also resolve development dependencies")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the metadata cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the metadata cache entirely")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "write the full result as JSON on stdout")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "directory to emit per-package artifacts into")
	cmd.Flags().StringSliceVar(&opts.fromDirs, "from", nil, "prior output directory to preload (repeatable)")
	cmd.Flags().StringSliceVar(&opts.extensions, "extension", nil, "extension library as name=dir (repeatable)")
	cmd.Flags().StringSliceVar(&opts.registries, "registry", nil, "registry base URL, first listed is preferred (repeatable)")
	cmd.Flags().StringSliceVar(&opts.blacklist, "blacklist", nil, "package name to refuse resolving (repeatable)")
	cmd.Flags().IntVar(&opts.cacheDepth, "cache-depth", 0, "recursion depth from which preloaded entries are trusted (negative: never)")

	return cmd
}

// buildConfig merges the config file with flag overrides. Flags that were
// explicitly set win over file values.
func buildConfig(cmd *cobra.Command, opts *resolveOpts) (resolve.Config, *fileConfig, error) {
	fileCfg, err := loadConfig(opts.configPath)
	if err != nil {
		return resolve.Config{}, nil, err
	}

	cfg := resolve.Config{
		Registries: fileCfg.Registries,
		AuthToken:  fileCfg.AuthToken,
		Timeout:    fileCfg.Timeout.Duration,
		CacheTTL:   fileCfg.CacheTTL.Duration,
		Refresh:    opts.refresh,
		IncludeDev: opts.dev,
		Blacklist:  fileCfg.Blacklist,
		CacheDepth: fileCfg.CacheDepth,
	}
	if cmd.Flags().Changed("registry") {
		cfg.Registries = opts.registries
	}
	if cmd.Flags().Changed("blacklist") {
		cfg.Blacklist = append(cfg.Blacklist, opts.blacklist...)
	}
	if cmd.Flags().Changed("cache-depth") {
		cfg.CacheDepth = opts.cacheDepth
	}
	return cfg, fileCfg, nil
}

// newBackend selects the cache backend for a run.
func newBackend(cmd *cobra.Command, opts *resolveOpts, fileCfg *fileConfig) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if fileCfg.Redis != nil && fileCfg.Redis.Addr != "" {
		return cache.NewRedisCache(cmd.Context(), cache.RedisConfig{
			Addr:     fileCfg.Redis.Addr,
			Password: fileCfg.Redis.Password,
			DB:       fileCfg.Redis.DB,
		})
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func runResolve(cmd *cobra.Command, args []string, opts *resolveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if len(args) == 0 && len(opts.manifests) == 0 {
		return fmt.Errorf("nothing to resolve: give package specs or --manifest")
	}

	cfg, fileCfg, err := buildConfig(cmd, opts)
	if err != nil {
		return err
	}

	var requests []resolve.Request
	for _, arg := range args {
		name, rng, err := parseSpec(arg)
		if err != nil {
			return err
		}
		requests = append(requests, resolve.Request{Name: name, Range: rng})
	}
	for _, path := range opts.manifests {
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		requests = append(requests, resolve.Request{Manifest: m})
	}

	backend, err := newBackend(cmd, opts, fileCfg)
	if err != nil {
		return err
	}
	fetchers, closeBackend, err := resolve.DefaultFetchers(ctx, cfg, backend, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	session := resolve.NewSession(cfg, logger, fetchers)

	for _, dir := range opts.fromDirs {
		n, err := session.PreloadOutput(dir)
		if err != nil {
			return err
		}
		logger.Debug("preloaded prior output", "dir", dir, "packages", n)
	}
	for _, ext := range opts.extensions {
		name, dir, err := parseExtension(ext)
		if err != nil {
			return err
		}
		n, err := session.PreloadExtension(name, dir)
		if err != nil {
			return err
		}
		logger.Debug("preloaded extension", "extension", name, "packages", n)
	}

	prog := newProgress(logger)
	var spinner *Spinner
	if !opts.jsonOut {
		spinner = newSpinner(ctx, fmt.Sprintf("Resolving %d request(s)...", len(requests)))
		spinner.Start()
	}

	report := session.Run(ctx, requests)

	if spinner != nil {
		spinner.Stop()
		if spinner.Cancelled() {
			return ctx.Err()
		}
	}
	prog.done(fmt.Sprintf("Resolved %d packages", session.Store().Len()))

	if err := emitResults(session, report, opts); err != nil {
		return err
	}
	if failed := report.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(report.Outcomes))
	}
	return nil
}

// emitResults writes the run's output in the requested forms.
func emitResults(session *resolve.Session, report *resolve.Report, opts *resolveOpts) error {
	if opts.outputDir != "" {
		if err := output.Emit(session.Store(), report, opts.outputDir); err != nil {
			return err
		}
	}
	if opts.jsonOut {
		return output.WriteJSON(os.Stdout, session.Store(), report)
	}

	for _, o := range report.Outcomes {
		if o.Err != nil {
			printError("%s@%s: %v", o.Name, o.Range, o.Err)
			continue
		}
		printPinned(o.Name, o.Version)
	}
	printSuccess("Stored %d package versions", session.Store().Len())
	if opts.outputDir != "" {
		printFile(opts.outputDir)
	}
	return nil
}
