package metrics

import (
	"time"
)

type RedisOperation string

const (
	RedisOpGet    RedisOperation = "get"
	RedisOpSet    RedisOperation = "set"
	RedisOpDel    RedisOperation = "del"
	RedisOpGetDel RedisOperation = "getdel"
)

type RedisTimer struct {
	service   string
	operation RedisOperation
	start     time.Time
}

func NewRedisTimer(service string, op RedisOperation) *RedisTimer {
	return &RedisTimer{
		service:   service,
		operation: op,
		start:     time.Now(),
	}
}

func (rt *RedisTimer) ObserveDuration() {
	RedisOperationDuration.WithLabelValues(rt.service, string(rt.operation)).Observe(time.Since(rt.start).Seconds())
}

func RecordCacheHit(service, keyPrefix string) {
	RedisCacheHits.WithLabelValues(service, keyPrefix).Inc()
}

func RecordCacheMiss(service, keyPrefix string) {
	RedisCacheMisses.WithLabelValues(service, keyPrefix).Inc()
}

func RecordRedisError(service string, op RedisOperation) {
	RedisErrors.WithLabelValues(service, string(op)).Inc()
}

type KafkaProduceTimer struct {
	service string
	topic   string
	start   time.Time
}

func NewKafkaProduceTimer(service, topic string) *KafkaProduceTimer {
	return &KafkaProduceTimer{
		service: service,
		topic:   topic,
		start:   time.Now(),
	}
}

func (kt *KafkaProduceTimer) Success() {
	KafkaMessagesProduced.WithLabelValues(kt.service, kt.topic).Inc()
	KafkaProduceDuration.WithLabelValues(kt.service, kt.topic).Observe(time.Since(kt.start).Seconds())
}

func (kt *KafkaProduceTimer) Error() {
	KafkaErrors.WithLabelValues(kt.service, kt.topic, "produce").Inc()
}

type DbOperation string

const (
	DbOpFind   DbOperation = "find"
	DbOpUpsert DbOperation = "upsert"
	DbOpUpdate DbOperation = "update"
	DbOpCount  DbOperation = "count"
)

type DbTimer struct {
	service    string
	operation  DbOperation
	collection string
	start      time.Time
}

func NewDbTimer(service string, op DbOperation, collection string) *DbTimer {
	return &DbTimer{
		service:    service,
		operation:  op,
		collection: collection,
		start:      time.Now(),
	}
}

// Done фиксирует длительность и, если операция упала, счётчик ошибок
func (dt *DbTimer) Done(err error) {
	DbQueryDuration.WithLabelValues(dt.service, string(dt.operation), dt.collection).Observe(time.Since(dt.start).Seconds())
	if err != nil {
		DbErrors.WithLabelValues(dt.service, string(dt.operation)).Inc()
	}
}

func RecordReplyGeneration(tone, source string) {
	ReplyGenerations.WithLabelValues(tone, source).Inc()
}

func RecordIngestion(platform, outcome string) {
	ReviewsIngested.WithLabelValues(platform, outcome).Inc()
}
