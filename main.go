// Command labelsheet 把标签 DSL 文件渲染为可打印的标签纸 PDF。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/labelsheet/config"
	"github.com/ByLCY/labelsheet/creator"
	"github.com/ByLCY/labelsheet/dsl"
	"github.com/ByLCY/labelsheet/fonts"
	"github.com/ByLCY/labelsheet/layout"
	"github.com/ByLCY/labelsheet/logger"
	canvasrenderer "github.com/ByLCY/labelsheet/renderer/canvas"
	"github.com/ByLCY/labelsheet/sheet"
	"github.com/ByLCY/labelsheet/storage"
)

type app struct {
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

type renderFlags struct {
	dataPath  string
	dataJSON  string
	output    string
	debugPath string
	borders   bool
	protect   bool
	expires   time.Duration
	skip      int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "labelsheet",
		Short:         "Render label sheets to PDF",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "配置文件路径（默认读取 ./labelsheet.toml）")

	root.AddCommand(newRenderCmd(a), newProductsCmd(), newFontsCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	a.cfg, a.log = cfg, log
	return nil
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a label DSL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("borders") {
				a.cfg.Render.Borders = f.borders
			}
			if cmd.Flags().Changed("protect") {
				a.cfg.Protection.Enabled = f.protect
			}
			if cmd.Flags().Changed("expires") {
				a.cfg.Protection.Enabled = true
				a.cfg.Protection.ExpiresAfter = f.expires
			}
			return a.render(cmd.Context(), args[0], f, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&f.dataPath, "data", "", "绑定到 DSL 的 JSON 数据文件")
	cmd.Flags().StringVar(&f.dataJSON, "data-json", "", "绑定到 DSL 的 JSON 字符串")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "输出文件名（- 表示 stdout，默认取 DSL 文件名）")
	cmd.Flags().StringVar(&f.debugPath, "debug", "", "布局调试 JSON 输出路径")
	cmd.Flags().BoolVar(&f.borders, "borders", false, "为有标签的行绘制边框")
	cmd.Flags().BoolVar(&f.protect, "protect", false, "添加打印保护层")
	cmd.Flags().DurationVar(&f.expires, "expires", 0, "打印保护的有效期（隐含 --protect）")
	cmd.Flags().IntVar(&f.skip, "skip", 0, "跳过已用过的标签位置数")
	return cmd
}

// render 串联解析、收集、分页、渲染与存储。
func (a *app) render(ctx context.Context, input string, f *renderFlags, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := loadData(f.dataPath, f.dataJSON)
	if err != nil {
		return err
	}

	file, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("无法打开 DSL 文件 %s: %w", input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}
	src, err := layout.Collect(doc, data)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	resolver, err := buildResolver(a.cfg.Render, a.log)
	if err != nil {
		return err
	}
	engine := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		Fonts:         resolver,
		DefaultFamily: a.cfg.Render.DefaultFamily,
	})

	opts := []creator.Option{
		creator.WithLogger(a.log),
		creator.WithBorders(a.cfg.Render.Borders),
		creator.WithMeta(src.Meta),
	}
	if a.cfg.Protection.Enabled {
		opts = append(opts, creator.WithProtection(a.cfg.Protection.ExpiresAfter))
	}
	c, err := creator.New(src.Definition, engine, opts...)
	if err != nil {
		return err
	}
	c.Skip(f.skip)
	for _, lbl := range src.Labels {
		c.AddLabel(lbl)
	}

	if f.debugPath != "" {
		pages, res, err := c.Layout()
		if err != nil {
			return fmt.Errorf("布局计算失败: %w", err)
		}
		if err := writeDebug(f.debugPath, res, pages); err != nil {
			return err
		}
	}

	out, err := c.Create()
	if err != nil {
		return fmt.Errorf("生成 PDF 失败: %w", err)
	}

	if f.output == "-" {
		_, err := io.Copy(stdout, out)
		return err
	}
	name := f.output
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	sink, err := storage.FromConfig(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return err
	}
	loc, err := sink.Save(ctx, name, out)
	if err != nil {
		return fmt.Errorf("保存 PDF 失败: %w", err)
	}
	fmt.Fprintf(stdout, "已生成 PDF：%s\n", loc)
	return nil
}

func loadData(path, raw string) (any, error) {
	if path != "" && raw != "" {
		return nil, fmt.Errorf("--data 与 --data-json 只能指定一个")
	}
	var buf []byte
	switch {
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件失败: %w", err)
		}
		buf = b
	case raw != "":
		buf = []byte(raw)
	default:
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(buf, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

func writeDebug(path string, res *layout.Result, pages []layout.PageLayout) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(path, res, pages); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// buildResolver 依次查找：字体目录中的 Source Sans Pro、字体目录中扫描到的字体、内置 Go 字体。
func buildResolver(cfg config.RenderConfig, log *zap.Logger) (fonts.Resolver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var chain []fonts.Resolver
	if cfg.FontDir != "" {
		if fsys := os.DirFS(cfg.FontDir); fonts.HasSourceSansPro(fsys) {
			chain = append(chain, fonts.SourceSansPro(fsys))
		}
		scanned := fonts.NewRegistry()
		n, err := scanned.LoadDir(cfg.FontDir)
		if err != nil {
			return nil, fmt.Errorf("加载字体目录失败: %w", err)
		}
		log.Debug("fonts loaded", zap.String("dir", cfg.FontDir), zap.Int("faces", n))
		chain = append(chain, scanned)
	}
	chain = append(chain, fonts.Builtin())
	return fonts.Chain(chain...), nil
}

func newProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List built-in label products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			for _, def := range sheet.Products() {
				fmt.Fprintf(w, "%-8s %s %6.2f x %6.2f mm  %d x %d = %d\n",
					def.Name, def.PageSize, def.Width, def.Height,
					def.LabelsPerRow, def.RowsPerPage, def.Capacity())
			}
			return nil
		},
	}
}

func newFontsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List resolvable font families",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resolver, err := buildResolver(a.cfg.Render, a.log)
			if err != nil {
				return err
			}
			lister, ok := resolver.(fonts.Lister)
			if !ok {
				return fmt.Errorf("字体解析器不支持列出字体族")
			}
			for _, family := range lister.Families() {
				fmt.Fprintln(cmd.OutOrStdout(), family)
			}
			return nil
		},
	}
}
