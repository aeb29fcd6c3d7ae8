package render

import "html/template"

const baseStyle = `
<style>
    body { margin: 0; padding: 0; background: #f3f4f6; color: #1f2937; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; }
    .container { max-width: 600px; margin: 40px auto; background: #ffffff; border-radius: 12px; overflow: hidden; }
    .header { padding: 40px 30px; text-align: center; color: #ffffff; }
    .content { padding: 40px 30px; }
    .card { border: 2px solid #e5e7eb; border-radius: 12px; padding: 25px; margin: 25px 0; }
    .title { font-size: 22px; font-weight: 600; margin-bottom: 20px; }
    .label { color: #6b7280; font-size: 12px; text-transform: uppercase; font-weight: 600; }
    .value { font-size: 15px; margin-bottom: 12px; }
    .footer { background: #f9fafb; padding: 20px 30px; text-align: center; color: #6b7280; font-size: 12px; }
</style>`

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + baseStyle + `</head>
<body>
<div class="container">
    <div class="header" style="background: #6366f1;"><h1>Recordatorio de Evento</h1></div>
    <div class="content">
        <p>Hola <strong>{{.ContactName}}</strong>,</p>
        <p>Te recordamos que tienes el siguiente evento programado:</p>
        <div class="card">
            <div class="title">{{.Title}}</div>
            <div class="label">Fecha</div><div class="value">{{.Date}}</div>
            <div class="label">Hora</div><div class="value">{{.Time}}</div>
            {{- if .Location}}
            <div class="label">Ubicación</div><div class="value">{{.Location}}</div>
            {{- end}}
            {{- if .Description}}
            <div class="label">Descripción</div><div class="value">{{.Description}}</div>
            {{- end}}
        </div>
        <p>Marca este evento en tu calendario para no olvidarlo</p>
    </div>
    <div class="footer">Este es un recordatorio automático generado por <strong>RemindSender</strong></div>
</div>
</body>
</html>`))

var testReminderTmpl = template.Must(template.New("test_reminder").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + baseStyle + `</head>
<body>
<div class="container">
    <div class="header" style="background: #f59e0b;"><div>Modo Prueba</div><h1>Recordatorio de Evento</h1></div>
    <div class="content">
        <p>Hola <strong>{{.ContactName}}</strong>,</p>
        <p>Este es un recordatorio de prueba para el siguiente evento:</p>
        <div class="card">
            <div class="title">{{.Title}}</div>
            <div class="label">Fecha</div><div class="value">{{.Date}}</div>
            <div class="label">Hora</div><div class="value">{{.Time}}</div>
            {{- if .Location}}
            <div class="label">Ubicación</div><div class="value">{{.Location}}</div>
            {{- end}}
            {{- if .Description}}
            <div class="label">Descripción</div><div class="value">{{.Description}}</div>
            {{- end}}
        </div>
        <p>Este es un correo de prueba enviado manualmente.</p>
    </div>
    <div class="footer">Correo de prueba generado por <strong>RemindSender</strong></div>
</div>
</body>
</html>`))

var mailCheckTmpl = template.Must(template.New("mail_check").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8">` + baseStyle + `</head>
<body>
<div class="container">
    <div class="header" style="background: #667eea;"><h1>Sistema de Correos Funcionando</h1></div>
    <div class="content">
        <p>Si estás leyendo este correo, la configuración de correo funciona y el sistema puede enviar notificaciones automáticas.</p>
        <div class="card">
            <div class="label">Usuario</div><div class="value">{{.Name}}</div>
            <div class="label">Correo</div><div class="value">{{.Email}}</div>
            <div class="label">Fecha y Hora</div><div class="value">{{.When}}</div>
        </div>
    </div>
    <div class="footer">Este es un correo de prueba enviado desde <strong>RemindSender</strong></div>
</div>
</body>
</html>`))
