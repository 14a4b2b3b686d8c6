package config

import (
	"os"
	"strconv"

	"caretrace-escalation/pkg/database"
	"caretrace-escalation/pkg/mqtt"
	"caretrace-escalation/pkg/redisutil"
)

// Config 升级报警服务配置
type Config struct {
	Database database.Config
	Redis    redisutil.Config
	MQTT     mqtt.Config

	// 升级规则阈值（运行期不可变，构造时注入各组件）
	Escalation struct {
		HighPainThreshold       int    // 规则1：疼痛阈值，默认 8
		MoodEscalationThreshold string // 规则2：情绪阈值（序数比较），默认 "sad"
		RapidPainLookbackDays   int    // 规则3：回看天数，默认 3
		MinTrendSamples         int    // 规则3：最少样本数，默认 3
		RapidPainIncrease       int    // 规则3：疼痛增幅阈值，默认 3
		RapidPainFloor          int    // 规则3：末值下限，默认 6
		RapidMoodLookbackDays   int    // 规则4：回看天数，默认 5
		ConsecutiveSadMoodCount int    // 规则4：连续 sad 样本数，默认 2
		RecentHistoryLimit      int    // 检测窗口记录数上限，默认 15

		NotificationCooldownHours int    // 同一 (subject, reason) 的冷却时间，默认 12
		CooldownKeyPrefix         string // 冷却键前缀，如 "caretrace:cooldown:"
	}

	// 趋势计算配置
	Trend struct {
		DefaultWindowDays int    // 默认窗口天数，默认 30
		MaxRecords        int    // 单次计算最多拉取的记录数，默认 200
		TopCategories     int    // 逐日序列保留的类别数，默认 5
		CacheKeyPrefix    string // 趋势缓存键前缀，如 "caretrace:subject:"
		CacheKeySuffix    string // 趋势缓存键后缀，如 ":trends"
		CacheTTL          int    // 趋势缓存 TTL（秒），默认 60
	}

	// 打卡事件消费配置
	Consumer struct {
		Stream        string // 打卡事件流，如 "caretrace:checkins"
		Group         string // 消费者组，默认 "escalation"
		Name          string // 消费者名称
		BatchSize     int    // 单次读取消息数，默认 10
		BlockSeconds  int    // XREADGROUP 阻塞秒数，默认 5
	}

	// 报警推送配置
	Notify struct {
		MQTTEnabled bool   // 是否启用 MQTT 推送
		MQTTTopic   string // 推送主题，如 "caretrace/alerts"
		WebhookURL  string // 推送网关 URL（为空则不启用）
	}

	HTTP struct {
		Addr string // HTTP 监听地址，默认 ":8086"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置（环境变量覆盖默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "caretrace")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "caretrace-escalation")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Escalation.HighPainThreshold = getEnvInt("ESCALATION_HIGH_PAIN_THRESHOLD", 8)
	cfg.Escalation.MoodEscalationThreshold = getEnv("ESCALATION_MOOD_THRESHOLD", "sad")
	cfg.Escalation.RapidPainLookbackDays = getEnvInt("ESCALATION_RAPID_PAIN_LOOKBACK_DAYS", 3)
	cfg.Escalation.MinTrendSamples = getEnvInt("ESCALATION_MIN_TREND_SAMPLES", 3)
	cfg.Escalation.RapidPainIncrease = getEnvInt("ESCALATION_RAPID_PAIN_INCREASE", 3)
	cfg.Escalation.RapidPainFloor = getEnvInt("ESCALATION_RAPID_PAIN_FLOOR", 6)
	cfg.Escalation.RapidMoodLookbackDays = getEnvInt("ESCALATION_RAPID_MOOD_LOOKBACK_DAYS", 5)
	cfg.Escalation.ConsecutiveSadMoodCount = getEnvInt("ESCALATION_CONSECUTIVE_SAD_COUNT", 2)
	cfg.Escalation.RecentHistoryLimit = getEnvInt("ESCALATION_RECENT_HISTORY_LIMIT", 15)
	cfg.Escalation.NotificationCooldownHours = getEnvInt("ESCALATION_COOLDOWN_HOURS", 12)
	cfg.Escalation.CooldownKeyPrefix = getEnv("ESCALATION_COOLDOWN_PREFIX", "caretrace:cooldown:")

	cfg.Trend.DefaultWindowDays = getEnvInt("TREND_DEFAULT_WINDOW_DAYS", 30)
	cfg.Trend.MaxRecords = getEnvInt("TREND_MAX_RECORDS", 200)
	cfg.Trend.TopCategories = getEnvInt("TREND_TOP_CATEGORIES", 5)
	cfg.Trend.CacheKeyPrefix = getEnv("TREND_CACHE_PREFIX", "caretrace:subject:")
	cfg.Trend.CacheKeySuffix = ":trends"
	cfg.Trend.CacheTTL = getEnvInt("TREND_CACHE_TTL", 60)

	cfg.Consumer.Stream = getEnv("CHECKIN_STREAM", "caretrace:checkins")
	cfg.Consumer.Group = getEnv("CHECKIN_CONSUMER_GROUP", "escalation")
	cfg.Consumer.Name = getEnv("CHECKIN_CONSUMER_NAME", "escalation-1")
	cfg.Consumer.BatchSize = getEnvInt("CHECKIN_CONSUMER_BATCH", 10)
	cfg.Consumer.BlockSeconds = getEnvInt("CHECKIN_CONSUMER_BLOCK_SECONDS", 5)

	cfg.Notify.MQTTEnabled = getEnv("NOTIFY_MQTT_ENABLED", "false") == "true"
	cfg.Notify.MQTTTopic = getEnv("NOTIFY_MQTT_TOPIC", "caretrace/alerts")
	cfg.Notify.WebhookURL = getEnv("NOTIFY_WEBHOOK_URL", "")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8086")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
