package lib

import (
	"log"
	"louefacile/src/config"
	"louefacile/src/types"
	"time"

	"github.com/go-co-op/gocron/v2"
)

var scheduler gocron.Scheduler

func NewScheduler(s gocron.Scheduler) {
	scheduler = s
}

func GetScheduler() (gocron.Scheduler, error) {
	if scheduler != nil {
		return scheduler, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler: %s\n", err.Error())
		return nil, err
	}
	scheduler = sched
	numJobs := len(sched.Jobs())
	log.Printf("Jobs in queue: %d\n", numJobs)
	return sched, nil
}

func CreateCronJob(handler any, duration time.Duration, args ...any) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return nil, err
	}
	j, err := sched.NewJob(
		gocron.DurationJob(duration),
		gocron.NewTask(handler, args...),
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	return &id, nil
}

func CreateOneTimeCronJob(def gocron.JobDefinition, task gocron.Task) (*string, error) {
	sched, err := GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return nil, err
	}
	j, err := sched.NewJob(
		def,
		task,
	)
	if err != nil {
		return nil, err
	}
	id := j.ID().String()
	log.Printf("Job: %s %s\n", id, j.Name())
	return &id, nil
}

// CreateCronSchedule queues a one-shot job that publishes a message to the
// given topic when startDate arrives.
func CreateCronSchedule(clientId, topic string, startDate time.Time, payload types.JSONB) {
	s, err := GetScheduler()
	if err != nil {
		log.Printf("Error initializing Scheduler client: %s\n", err.Error())
		return
	}
	j, err := s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(startDate)),
		gocron.NewTask(func(p types.JSONB) {
			KafkaProduceMessage(clientId, topic, p)
		}, payload),
	)
	if err != nil {
		log.Printf("Error creating job: %s\n", err.Error())
		return
	}
	sRunsAt := startDate.Format(config.TIME_PARSE_FORMAT)
	log.Printf("New Job scheduled on: %s %s\n", j.ID().String(), sRunsAt)
}
