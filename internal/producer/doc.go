// Package producer реализует источник событий конвейера.
//
// Producer периодически обходит контейнер хранилища и публикует конверт
// на каждый блоб вне processed/ — то есть на каждый ещё не обработанный.
//
// Структура:
//   - producer.go — основная логика (Sweep, цикл обхода)
//   - schedule.go — парсинг выражений расписания
//
// Использование:
//
//	prod, err := producer.New(producer.Config{
//	    Lister:    store,
//	    Publisher: publisher,
//	    Container: "incoming",
//	    Schedule:  "@every 60s",
//	    Logger:    logger,
//	})
//	if err != nil {
//	    return err
//	}
//
//	prod.Start(ctx)
//	defer prod.Stop()
//
// Дубликаты:
//
// Producer не ведёт учёт опубликованного: если сообщение потерялось или
// воркер не успел перенести блоб до следующего обхода, конверт на тот же
// блоб будет опубликован повторно. Это штатно — перенос идемпотентен,
// лишняя доставка завершится без побочных эффектов.
package producer
