package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"

	"visitor-pass-service/internal/infrastructure/config"
	Logger "visitor-pass-service/pkg/logger"
	"visitor-pass-service/pkg/utils"
)

const pngDataURLPrefix = "data:image/png;base64,"

// InterfaceCredentialService 生成访客凭证
type InterfaceCredentialService interface {
	GeneratePin() string
	GenerateVisualCredential(code string) (string, error)
}

// QROptions 二维码渲染参数
type QROptions struct {
	Level      qrcode.RecoveryLevel
	Margin     int // 静区宽度，单位为模块
	Width      int // 图片总宽度，单位为像素
	Foreground color.Color
	Background color.Color
}

// DefaultQROptions 2 模块边距、200 像素宽、白底黑码。
// go-qrcode 没有 Q 级，Q 映射为 qrcode.High（约 25% 纠错），H 映射为 qrcode.Highest。
func DefaultQROptions() QROptions {
	return QROptions{
		Level:      qrcode.High,
		Margin:     2,
		Width:      200,
		Foreground: color.Black,
		Background: color.White,
	}
}

// CredentialService 提供 PIN 与二维码生成
type CredentialService struct {
	Options QROptions
}

// NewCredentialService 根据配置创建凭证服务，非法配置项回退到默认值
func NewCredentialService(cfg *config.Config) InterfaceCredentialService {
	opts := DefaultQROptions()
	if cfg == nil {
		return &CredentialService{Options: opts}
	}

	if level, ok := parseRecoveryLevel(cfg.QRErrorCorrection); ok {
		opts.Level = level
	} else {
		Logger.Warning("未知的二维码纠错级别 %q，使用默认值 Q", cfg.QRErrorCorrection)
	}
	if cfg.QRMargin >= 0 {
		opts.Margin = cfg.QRMargin
	}
	if cfg.QRWidth > 0 {
		opts.Width = cfg.QRWidth
	}
	if c, err := parseHexColor(cfg.QRForeground); err == nil {
		opts.Foreground = c
	} else {
		Logger.Warning("二维码前景色配置无效: %v", err)
	}
	if c, err := parseHexColor(cfg.QRBackground); err == nil {
		opts.Background = c
	} else {
		Logger.Warning("二维码背景色配置无效: %v", err)
	}

	return &CredentialService{Options: opts}
}

// GeneratePin 生成 [100000, 999999] 区间内均匀分布的 6 位数字
func (s *CredentialService) GeneratePin() string {
	return strconv.FormatInt(utils.RandomIntRange(100000, 999999), 10)
}

// GenerateVisualCredential 将 PIN 编码为 PNG 二维码并返回 data URL
func (s *CredentialService) GenerateVisualCredential(code string) (string, error) {
	q, err := qrcode.New(code, s.Options.Level)
	if err != nil {
		Logger.Error("生成二维码失败: %v", err)
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	q.DisableBorder = true

	img := renderQR(q.Bitmap(), s.Options)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		Logger.Error("二维码 PNG 编码失败: %v", err)
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}

	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// renderQR 按模块缩放绘制位图，缩放倍数取整，图片宽度不超过 opts.Width
func renderQR(bitmap [][]bool, opts QROptions) image.Image {
	modules := len(bitmap) + 2*opts.Margin
	scale := opts.Width / modules
	if scale < 1 {
		scale = 1
	}
	size := modules * scale

	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{opts.Background, opts.Foreground})
	for y, row := range bitmap {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := (x + opts.Margin) * scale
			y0 := (y + opts.Margin) * scale
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetColorIndex(x0+dx, y0+dy, 1)
				}
			}
		}
	}
	return img
}

// parseRecoveryLevel 按 L/M/Q/H 解析纠错级别，Q 与空值对应 qrcode.High
func parseRecoveryLevel(level string) (qrcode.RecoveryLevel, bool) {
	switch strings.ToUpper(level) {
	case "L":
		return qrcode.Low, true
	case "M":
		return qrcode.Medium, true
	case "Q", "":
		return qrcode.High, true
	case "H":
		return qrcode.Highest, true
	}
	return qrcode.High, false
}

// parseHexColor 解析 #RRGGBB 或 #RGB
func parseHexColor(value string) (color.Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return nil, fmt.Errorf("颜色格式无效: %q", value)
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("颜色格式无效: %q", value)
	}
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}, nil
}
