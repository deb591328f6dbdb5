package live

// pageShell wraps the initial render. Arguments: title, rendered body and
// websocket path. The script replaces the body on every server reply and
// exposes replate.send(data) for pushing new data from the console.
const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<div id="replate-root">%s</div>
<pre id="replate-error" hidden></pre>
<script>
(function () {
  var root = document.getElementById("replate-root");
  var errorBox = document.getElementById("replate-error");
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var socket = new WebSocket(scheme + location.host + "%s");
  socket.onmessage = function (event) {
    var reply = JSON.parse(event.data);
    if (reply.error) {
      errorBox.textContent = reply.error;
      errorBox.hidden = false;
      return;
    }
    errorBox.hidden = true;
    root.innerHTML = reply.html;
  };
  window.replate = {
    send: function (data) { socket.send(JSON.stringify({ data: data })); }
  };
})();
</script>
</body>
</html>
`
