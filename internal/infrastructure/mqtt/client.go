package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"visitor-pass-service/internal/infrastructure/config"
	Logger "visitor-pass-service/pkg/logger"
)

// ErrNotConnected 客户端尚未连接到 broker
var ErrNotConnected = errors.New("MQTT客户端未连接")

// Client 通行证事件的 MQTT 发布端
type Client struct {
	client    paho.Client
	brokerURL string
	qos       byte
	retained  bool
	timeout   time.Duration

	mu        sync.RWMutex
	connected bool
}

// NewClient 根据配置创建客户端，不会立即连接
func NewClient(cfg *config.Config) *Client {
	c := &Client{
		brokerURL: cfg.MQTTBrokerURL,
		qos:       byte(cfg.MQTTQoS),
		retained:  cfg.MQTTRetained,
		timeout:   5 * time.Second,
	}
	if c.qos > 2 {
		c.qos = 1
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	if strings.HasPrefix(cfg.MQTTBrokerURL, "ssl://") || strings.HasPrefix(cfg.MQTTBrokerURL, "tls://") {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		Logger.Warning("[MQTT] 连接丢失: %v", err)
		c.setConnected(false)
	})
	opts.SetOnConnectHandler(func(_ paho.Client) {
		Logger.Info("[MQTT] 成功连接到 %s", c.brokerURL)
		c.setConnected(true)
	})
	opts.SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
		Logger.Info("[MQTT] 正在尝试重连...")
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect 发起连接；开启 ConnectRetry 后 paho 会在后台持续重试
func (c *Client) Connect() {
	Logger.Info("[MQTT] 正在连接到 %s...", c.brokerURL)
	token := c.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			Logger.Error("[MQTT] 连接失败: %v", err)
		}
	}()
}

// Publish 序列化 payload 为 JSON 并发布，等待 broker 确认或超时
func (c *Client) Publish(topic string, payload interface{}) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %v", err)
	}

	token := c.client.Publish(topic, c.qos, c.retained, data)
	if !token.WaitTimeout(c.timeout) {
		return fmt.Errorf("发布消息超时: %s", topic)
	}
	return token.Error()
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Disconnect 断开与MQTT服务器的连接
func (c *Client) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}
